package game

import (
	"sort"

	"github.com/chehsunliu/poker"

	"partyrooms/internal/domain"
)

// HandState - скрытая часть раздачи, наружу не отдается
type HandState struct {
	Deck      []domain.Card `json:"deck"`
	Committed map[int]int64 `json:"committed"`
	AllIn     map[int]bool  `json:"all_in"`
	Acted     map[int]bool  `json:"acted"`
	// после неполного олл-ин рейза сходившие могут только коллировать
	CallOnly map[int]bool `json:"call_only,omitempty"`
	InHand   map[int]bool `json:"in_hand"`
}

func newHandState(deck []domain.Card) *HandState {
	return &HandState{
		Deck:      deck,
		Committed: make(map[int]int64),
		AllIn:     make(map[int]bool),
		Acted:     make(map[int]bool),
		CallOnly:  make(map[int]bool),
		InHand:    make(map[int]bool),
	}
}

func (h *HandState) draw(n int) []domain.Card {
	cards := append([]domain.Card(nil), h.Deck[:n]...)
	h.Deck = h.Deck[n:]
	return cards
}

// Банк с местами, которые могут его выиграть
type sidePot struct {
	Amount   int64
	Eligible []int
}

// buildPots режет вклады на основной и побочные банки по уровням олл-инов.
// Вклады сбросивших остаются в банках, но претендовать они не могут.
func buildPots(committed map[int]int64, live map[int]bool) []sidePot {
	var levels []int64
	seen := make(map[int64]bool)
	for seat, c := range committed {
		if live[seat] && c > 0 && !seen[c] {
			seen[c] = true
			levels = append(levels, c)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []sidePot
	var prev int64
	for _, level := range levels {
		p := sidePot{}
		for seat, c := range committed {
			p.Amount += min(c, level) - min(c, prev)
			if live[seat] && c >= level {
				p.Eligible = append(p.Eligible, seat)
			}
		}
		sort.Ints(p.Eligible)
		if p.Amount > 0 {
			pots = append(pots, p)
		}
		prev = level
	}

	// сброшенные фишки сверх последнего уровня
	var rest int64
	for _, c := range committed {
		if c > prev {
			rest += c - prev
		}
	}
	if rest > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += rest
	}
	return pots
}

// handRank оценивает лучшую пятерку из карманных и общих карт. Меньше - сильнее
func handRank(hole, board []domain.Card) (int32, string) {
	cards := make([]poker.Card, 0, len(hole)+len(board))
	for _, c := range hole {
		cards = append(cards, poker.NewCard(string(c)))
	}
	for _, c := range board {
		cards = append(cards, poker.NewCard(string(c)))
	}
	rank := poker.Evaluate(cards)
	return rank, poker.RankString(rank)
}

// splitPot делит банк между победителями; лишние фишки получает первый
// победитель слева от дилера
func splitPot(amount int64, winners []int, dealer int, seats []int) map[int]int64 {
	out := make(map[int]int64, len(winners))
	if len(winners) == 0 {
		return out
	}
	share := amount / int64(len(winners))
	odd := amount % int64(len(winners))
	for _, w := range winners {
		out[w] += share
	}
	if odd > 0 {
		out[firstLeftOf(dealer, seats, winners)] += odd
	}
	return out
}

func firstLeftOf(dealer int, seats []int, among []int) int {
	in := make(map[int]bool, len(among))
	for _, s := range among {
		in[s] = true
	}
	sorted := append([]int(nil), seats...)
	sort.Ints(sorted)
	for _, s := range sorted {
		if s > dealer && in[s] {
			return s
		}
	}
	for _, s := range sorted {
		if in[s] {
			return s
		}
	}
	return among[0]
}
