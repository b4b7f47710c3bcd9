package game

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"partyrooms/internal/domain"
)

const (
	PokerMinPlayers = 2
	PokerMaxPlayers = 8
)

type PokerConfig struct {
	Turn     time.Duration
	Showdown time.Duration
}

func DefaultPokerConfig() PokerConfig {
	return PokerConfig{
		Turn:     30 * time.Second,
		Showdown: 8 * time.Second,
	}
}

// Poker - техасский холдем без лимита, раздачи идут пока фишки есть хотя бы у двоих
type Poker struct {
	cfg PokerConfig
	rng *rand.Rand
}

func NewPoker(cfg PokerConfig, rng *rand.Rand) *Poker {
	return &Poker{cfg: cfg, rng: rng}
}

func (p *Poker) Variant() domain.Variant { return domain.VariantPoker }

func (p *Poker) SeatRange() (int, int) { return PokerMinPlayers, PokerMaxPlayers }

func inPlay(s *domain.Seat) bool {
	return s.Active && s.Chips > 0
}

func (p *Poker) Start(t *Table, now time.Time) error {
	for _, s := range t.Seats {
		s.Active = true
		s.IsFolded = false
		s.CurrentBet = 0
	}
	t.State = &domain.GameState{
		DealerSeat: -1,
		TurnSeat:   -1,
		SmallBlind: t.Room.SmallBlind,
		BigBlind:   2 * t.Room.SmallBlind,
	}
	t.Room.Status = domain.StatusPlaying
	t.System(now, fmt.Sprintf("Game started: %d players, blinds %d/%d", len(t.Seats), t.State.SmallBlind, t.State.BigBlind))
	p.startHand(t, now)
	return nil
}

func (p *Poker) startHand(t *Table, now time.Time) {
	players := 0
	for _, s := range t.Seats {
		if inPlay(s) {
			players++
		}
	}
	if players < 2 {
		p.finishGame(t, now)
		return
	}

	dealer := t.nextSeat(t.State.DealerSeat, inPlay)
	st := t.enterPhase(domain.PhaseBlinds, time.Time{})
	st.HandNumber++
	st.DealerSeat = dealer.Index
	st.CommunityCards = nil
	st.Pot = 0
	st.CurrentBet = 0
	st.MinRaise = st.BigBlind
	st.LastHand = nil
	st.TurnSeat = -1

	deck := domain.NewDeck()
	p.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	h := newHandState(deck)
	t.Hand = h
	for _, s := range t.Seats {
		s.CurrentBet = 0
		s.HoleCards = nil
		s.IsFolded = !inPlay(s)
		if inPlay(s) {
			h.InHand[s.Index] = true
			s.HoleCards = h.draw(2)
		}
	}

	// хедз-ап: дилер ставит малый блайнд и ходит первым префлоп
	sb := t.nextSeat(dealer.Index, inPlay)
	if players == 2 {
		sb = dealer
	}
	bb := t.nextSeat(sb.Index, inPlay)
	p.commit(t, sb, st.SmallBlind)
	p.commit(t, bb, st.BigBlind)
	st.CurrentBet = st.BigBlind
	t.System(now, fmt.Sprintf("Hand #%d. %s posts small blind %d, %s posts big blind %d",
		st.HandNumber, sb.Name, sb.CurrentBet, bb.Name, bb.CurrentBet))

	t.enterPhase(domain.PhasePreflop, time.Time{})
	if next := p.nextToAct(t, bb.Index); next != nil {
		p.setTurn(t, next, now)
		return
	}
	p.closeStreet(t, now)
}

// commit переносит фишки из стека в банк, не больше стека
func (p *Poker) commit(t *Table, s *domain.Seat, amount int64) int64 {
	put := min(amount, s.Chips)
	s.Chips -= put
	s.CurrentBet += put
	t.Hand.Committed[s.Index] += put
	t.State.Pot += put
	if s.Chips == 0 {
		t.Hand.AllIn[s.Index] = true
	}
	return put
}

func (p *Poker) canAct(t *Table, s *domain.Seat) bool {
	h := t.Hand
	return h != nil && s.Active && h.InHand[s.Index] && !s.IsFolded && !h.AllIn[s.Index]
}

func (p *Poker) ableCount(t *Table) int {
	n := 0
	for _, s := range t.Seats {
		if p.canAct(t, s) {
			n++
		}
	}
	return n
}

func (p *Poker) needsToAct(t *Table, s *domain.Seat) bool {
	if !p.canAct(t, s) {
		return false
	}
	if !t.Hand.Acted[s.Index] {
		// единственный, кто еще может ставить, и ставка уравнена: торговаться не с кем
		return p.ableCount(t) > 1 || s.CurrentBet < t.State.CurrentBet
	}
	return s.CurrentBet < t.State.CurrentBet
}

func (p *Poker) nextToAct(t *Table, from int) *domain.Seat {
	return t.nextSeat(from, func(s *domain.Seat) bool { return p.needsToAct(t, s) })
}

// setTurn передает ход; каждый ход получает свой токен
func (p *Poker) setTurn(t *Table, s *domain.Seat, now time.Time) {
	t.State.TurnSeat = s.Index
	t.State.PhaseID++
	t.State.Deadline = now.Add(p.cfg.Turn)
}

func (p *Poker) liveSeats(t *Table) []*domain.Seat {
	var out []*domain.Seat
	for _, s := range t.Seats {
		if t.Hand != nil && t.Hand.InHand[s.Index] && !s.IsFolded {
			out = append(out, s)
		}
	}
	return out
}

func (p *Poker) Submit(t *Table, seat int, in domain.ActionInput, now time.Time) (*Tally, error) {
	if t.Room.Status != domain.StatusPlaying {
		return nil, domain.ErrWrongPhase
	}
	if err := t.checkToken(in.PhaseToken); err != nil {
		return nil, err
	}
	s := t.Seat(seat)
	if s == nil {
		return nil, domain.ErrNotSeated
	}
	st := t.State
	if !st.Phase.Betting() {
		return nil, domain.ErrWrongPhase
	}
	if st.TurnSeat != seat || !p.canAct(t, s) {
		return nil, domain.ErrNotYourTurn
	}

	h := t.Hand
	toCall := st.CurrentBet - s.CurrentBet
	maxTo := s.CurrentBet + s.Chips
	var raiseTo int64

	switch in.Kind {
	case domain.ActionFold:
	case domain.ActionPass:
		if toCall > 0 {
			return nil, domain.ErrInvalidAction
		}
	case domain.ActionCall:
		if toCall <= 0 {
			return nil, domain.ErrInvalidAction
		}
	case domain.ActionRaise:
		if h.CallOnly[seat] || s.Chips <= toCall {
			return nil, domain.ErrInvalidAction
		}
		raiseTo = in.Amount
		if raiseTo > maxTo || raiseTo <= st.CurrentBet {
			return nil, domain.ErrInvalidAmount
		}
		// рейз на весь стек принимается как олл-ин даже ниже минимального
		if raiseTo < maxTo && raiseTo < st.CurrentBet+st.MinRaise {
			return nil, domain.ErrInvalidAmount
		}
	case domain.ActionAllIn:
		if s.Chips == 0 {
			return nil, domain.ErrInvalidAction
		}
		if h.CallOnly[seat] && maxTo > st.CurrentBet {
			return nil, domain.ErrInvalidAction
		}
		raiseTo = maxTo
	default:
		return nil, domain.ErrInvalidAction
	}

	var text string
	switch in.Kind {
	case domain.ActionFold:
		s.IsFolded = true
		text = fmt.Sprintf("%s folds", s.Name)
	case domain.ActionPass:
		text = fmt.Sprintf("%s checks", s.Name)
	case domain.ActionCall:
		put := p.commit(t, s, toCall)
		text = fmt.Sprintf("%s calls %d", s.Name, put)
	case domain.ActionRaise, domain.ActionAllIn:
		if raiseTo > st.CurrentBet {
			p.raise(t, s, raiseTo)
			text = fmt.Sprintf("%s raises to %d", s.Name, raiseTo)
		} else {
			p.commit(t, s, raiseTo-s.CurrentBet)
			text = fmt.Sprintf("%s calls %d", s.Name, s.CurrentBet)
		}
		if h.AllIn[seat] {
			text += " (all-in)"
		}
	}
	h.Acted[seat] = true
	t.Actions[seat] = domain.Action{
		Seat:    seat,
		Phase:   st.Phase,
		PhaseID: st.PhaseID,
		Kind:    in.Kind,
		Amount:  s.CurrentBet,
		At:      now,
	}
	t.System(now, text)
	p.afterAction(t, now, seat)
	return p.Tally(t, seat), nil
}

// raise поднимает ставку улицы до raiseTo. Полный рейз заново открывает торговлю
func (p *Poker) raise(t *Table, s *domain.Seat, raiseTo int64) {
	st, h := t.State, t.Hand
	size := raiseTo - st.CurrentBet
	p.commit(t, s, raiseTo-s.CurrentBet)
	if size >= st.MinRaise {
		st.MinRaise = size
		for seat := range h.Acted {
			if seat != s.Index {
				h.Acted[seat] = false
			}
		}
		h.CallOnly = make(map[int]bool)
	} else {
		for seat, acted := range h.Acted {
			if acted && seat != s.Index {
				h.CallOnly[seat] = true
			}
		}
	}
	st.CurrentBet = raiseTo
}

func (p *Poker) afterAction(t *Table, now time.Time, from int) {
	if live := p.liveSeats(t); len(live) == 1 {
		p.winByFold(t, now, live[0])
		return
	}
	if next := p.nextToAct(t, from); next != nil {
		p.setTurn(t, next, now)
		return
	}
	p.closeStreet(t, now)
}

// closeStreet открывает следующую улицу; если торговаться некому, досдает борд до конца
func (p *Poker) closeStreet(t *Table, now time.Time) {
	for {
		switch t.State.Phase {
		case domain.PhasePreflop:
			p.dealStreet(t, now, domain.PhaseFlop, 3)
		case domain.PhaseFlop:
			p.dealStreet(t, now, domain.PhaseTurn, 1)
		case domain.PhaseTurn:
			p.dealStreet(t, now, domain.PhaseRiver, 1)
		default:
			p.showdown(t, now)
			return
		}
		if next := p.nextToAct(t, t.State.DealerSeat); next != nil {
			p.setTurn(t, next, now)
			return
		}
	}
}

func (p *Poker) dealStreet(t *Table, now time.Time, phase domain.Phase, n int) {
	st := t.enterPhase(phase, time.Time{})
	h := t.Hand
	h.draw(1)
	cards := h.draw(n)
	st.CommunityCards = append(st.CommunityCards, cards...)
	st.CurrentBet = 0
	st.MinRaise = st.BigBlind
	st.TurnSeat = -1
	for _, s := range t.Seats {
		s.CurrentBet = 0
	}
	h.Acted = make(map[int]bool)
	h.CallOnly = make(map[int]bool)

	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = string(c)
	}
	t.System(now, fmt.Sprintf("%s: %s", strings.ToUpper(string(phase[:1]))+string(phase[1:]), strings.Join(names, " ")))
}

func (p *Poker) winByFold(t *Table, now time.Time, winner *domain.Seat) {
	amount := t.State.Pot
	winner.Chips += amount
	t.System(now, fmt.Sprintf("%s wins %d, everyone else folded", winner.Name, amount))
	p.enterShowdown(t, now, &domain.HandResult{
		Winners: []domain.PotShare{{Seat: winner.Index, Amount: amount}},
		ByFold:  true,
	})
}

func (p *Poker) showdown(t *Table, now time.Time) {
	st, h := t.State, t.Hand
	live := make(map[int]bool)
	ranks := make(map[int]int32)
	names := make(map[int]string)
	var revealed, all []int
	for _, s := range t.Seats {
		all = append(all, s.Index)
		if !h.InHand[s.Index] || s.IsFolded {
			continue
		}
		live[s.Index] = true
		revealed = append(revealed, s.Index)
		ranks[s.Index], names[s.Index] = handRank(s.HoleCards, st.CommunityCards)
	}

	won := make(map[int]int64)
	for _, pot := range buildPots(h.Committed, live) {
		best := int32(math.MaxInt32)
		var winners []int
		for _, seat := range pot.Eligible {
			switch r := ranks[seat]; {
			case r < best:
				best, winners = r, []int{seat}
			case r == best:
				winners = append(winners, seat)
			}
		}
		for seat, amount := range splitPot(pot.Amount, winners, st.DealerSeat, all) {
			won[seat] += amount
		}
	}

	result := &domain.HandResult{Revealed: revealed}
	for _, seat := range sortedKeys(won) {
		s := t.Seat(seat)
		s.Chips += won[seat]
		result.Winners = append(result.Winners, domain.PotShare{Seat: seat, Amount: won[seat], Hand: names[seat]})
		t.System(now, fmt.Sprintf("%s wins %d with %s", s.Name, won[seat], names[seat]))
	}
	p.enterShowdown(t, now, result)
}

func (p *Poker) enterShowdown(t *Table, now time.Time, result *domain.HandResult) {
	st := t.enterPhase(domain.PhaseShowdown, now.Add(p.cfg.Showdown))
	st.LastHand = result
	st.Pot = 0
	st.CurrentBet = 0
	st.TurnSeat = -1
	for _, s := range t.Seats {
		s.CurrentBet = 0
	}
}

// finishGame: фишки остались меньше чем у двух игроков
func (p *Poker) finishGame(t *Table, now time.Time) {
	var best *domain.Seat
	for _, s := range t.Seats {
		if s.Active && (best == nil || s.Chips > best.Chips) {
			best = s
		}
	}
	if best == nil {
		t.finish(now, "", nil, "")
		t.System(now, "Game over. Nobody is left at the table")
		return
	}
	seat := best.Index
	hand := ""
	if last := t.State.LastHand; last != nil {
		for _, w := range last.Winners {
			if w.Seat == seat {
				hand = w.Hand
			}
		}
	}
	t.Hand = nil
	t.finish(now, domain.WinnerPlayer, &seat, hand)
	t.System(now, fmt.Sprintf("Game over. %s wins with %d chips", best.Name, best.Chips))
}

func (p *Poker) Advance(t *Table, now time.Time) bool {
	changed := false
	for i := 0; i < maxCatchUp; i++ {
		st := t.State
		if t.Room.Status != domain.StatusPlaying || st == nil || st.Deadline.IsZero() || now.Before(st.Deadline) {
			break
		}
		switch {
		case st.Phase.Betting():
			// не успел - сброс
			if s := t.Seat(st.TurnSeat); s != nil && p.canAct(t, s) {
				s.IsFolded = true
				t.Hand.Acted[s.Index] = true
				t.System(now, fmt.Sprintf("%s ran out of time and folds", s.Name))
			}
			p.afterAction(t, now, st.TurnSeat)
		case st.Phase == domain.PhaseShowdown:
			p.startHand(t, now)
		default:
			return changed
		}
		changed = true
	}
	return changed
}

// Leave: место сбрасывает карты, оставшийся стек уходит обратно на баланс
func (p *Poker) Leave(t *Table, seat int, now time.Time) int64 {
	s := t.Seat(seat)
	if s == nil || !s.Active {
		return 0
	}
	wasTurn := t.State != nil && t.State.Phase.Betting() && t.State.TurnSeat == seat
	inHand := t.Hand != nil && t.Hand.InHand[seat] && !s.IsFolded
	s.Active = false
	s.IsFolded = true
	cashOut := s.Chips
	s.Chips = 0
	t.System(now, fmt.Sprintf("%s left the table", s.Name))

	if t.State == nil {
		return cashOut
	}
	switch {
	case t.State.Phase.Betting() && inHand:
		if live := p.liveSeats(t); len(live) == 1 {
			p.winByFold(t, now, live[0])
		} else if wasTurn {
			p.afterAction(t, now, seat)
		}
	case t.State.Phase == domain.PhaseShowdown:
		players := 0
		for _, s := range t.Seats {
			if inPlay(s) {
				players++
			}
		}
		if players < 2 {
			p.finishGame(t, now)
		}
	}
	return cashOut
}

func (p *Poker) ChatChannel(t *Table, seat int) (domain.Channel, error) {
	s := t.Seat(seat)
	if s == nil {
		return "", domain.ErrNotSeated
	}
	switch t.Room.Status {
	case domain.StatusWaiting:
		return domain.ChannelPublic, nil
	case domain.StatusFinished:
		return "", domain.ErrChatNotAllowed
	}
	if !s.Active {
		return "", domain.ErrChatNotAllowed
	}
	// сбросивший молчит до конца раздачи
	if s.IsFolded && t.State.Phase.Betting() {
		return "", domain.ErrChatNotAllowed
	}
	return domain.ChannelPublic, nil
}

func (p *Poker) Allowed(t *Table, seat int) []domain.ActionKind {
	st := t.State
	s := t.Seat(seat)
	if t.Room.Status != domain.StatusPlaying || st == nil || s == nil || !st.Phase.Betting() ||
		st.TurnSeat != seat || !p.canAct(t, s) {
		return nil
	}
	kinds := []domain.ActionKind{domain.ActionFold}
	toCall := st.CurrentBet - s.CurrentBet
	if toCall > 0 {
		kinds = append(kinds, domain.ActionCall)
	} else {
		kinds = append(kinds, domain.ActionPass)
	}
	if !t.Hand.CallOnly[seat] && s.Chips > toCall {
		kinds = append(kinds, domain.ActionRaise)
	}
	if !t.Hand.CallOnly[seat] || s.Chips <= toCall {
		kinds = append(kinds, domain.ActionAllIn)
	}
	return kinds
}

func (p *Poker) Tally(t *Table, viewer int) *Tally {
	if t.State == nil {
		return nil
	}
	tally := &Tally{
		Phase:      t.State.Phase,
		PhaseToken: t.PhaseToken(),
		Pot:        t.State.Pot,
		CurrentBet: t.State.CurrentBet,
	}
	for _, s := range t.Seats {
		if p.canAct(t, s) {
			tally.Eligible++
			if t.Hand.Acted[s.Index] {
				tally.Acted++
			}
		}
	}
	if a, ok := t.Actions[viewer]; ok {
		tally.Mine = &a
	}
	return tally
}

func sortedKeys(m map[int]int64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
