package domain

import "time"

// Фаза игры
type Phase string

const (
	PhaseNone Phase = ""

	// мафия
	PhaseNight Phase = "night"
	PhaseDay   Phase = "day"

	// покер
	PhaseBlinds   Phase = "blinds"
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"

	PhaseFinished Phase = "finished"
)

// Betting возвращает true для улиц, на которых принимаются ставки
func (p Phase) Betting() bool {
	switch p {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// Состояние игры. Создается при старте и заменяется целиком на каждом переходе
type GameState struct {
	Phase    Phase     `json:"phase"`
	PhaseID  int64     `json:"phase_id"`
	Deadline time.Time `json:"deadline"`

	// мафия: номер дня, покер: номер раздачи
	DayNumber  int `json:"day_number"`
	HandNumber int `json:"hand_number,omitempty"`

	// покер
	CommunityCards []Card      `json:"community_cards,omitempty"`
	Pot            int64       `json:"pot"`
	CurrentBet     int64       `json:"current_bet"`
	MinRaise       int64       `json:"min_raise,omitempty"`
	DealerSeat     int         `json:"dealer_seat"`
	TurnSeat       int         `json:"turn_seat"`
	SmallBlind     int64       `json:"small_blind,omitempty"`
	BigBlind       int64       `json:"big_blind,omitempty"`
	LastHand       *HandResult `json:"last_hand,omitempty"`

	// заполняются один раз при переходе в finished
	Winner     Winner `json:"winner,omitempty"`
	WinnerSeat *int   `json:"winner_seat,omitempty"`
	WinnerHand string `json:"winner_hand,omitempty"`
}

// Итог раздачи, показывается в фазе showdown
type HandResult struct {
	Winners  []PotShare `json:"winners"`
	Revealed []int      `json:"revealed"`
	ByFold   bool       `json:"by_fold"`
}

// Кому сколько досталось из банка
type PotShare struct {
	Seat   int    `json:"seat"`
	Amount int64  `json:"amount"`
	Hand   string `json:"hand,omitempty"`
}
