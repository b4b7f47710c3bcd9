package domain

import "time"

// Тип действия
type ActionKind string

const (
	// мафия
	ActionKill  ActionKind = "kill"
	ActionHeal  ActionKind = "heal"
	ActionCheck ActionKind = "check"
	ActionVote  ActionKind = "vote"

	// покер
	ActionFold  ActionKind = "fold"
	ActionPass  ActionKind = "pass" // check в покере, чтобы не путать с проверкой детектива
	ActionCall  ActionKind = "call"
	ActionRaise ActionKind = "raise"
	ActionAllIn ActionKind = "all_in"
)

// Действие игрока в фазе. На одного игрока в фазе действует только последнее
type Action struct {
	Seat    int        `json:"seat"`
	Phase   Phase      `json:"phase"`
	PhaseID int64      `json:"phase_id"`
	Kind    ActionKind `json:"kind"`
	Target  *int       `json:"target,omitempty"`
	Amount  int64      `json:"amount,omitempty"`
	At      time.Time  `json:"at"`
}

// Входные данные submitAction
type ActionInput struct {
	PhaseToken string     `json:"phase_token"`
	Kind       ActionKind `json:"kind" binding:"required"`
	Target     *int       `json:"target,omitempty"`
	Amount     int64      `json:"amount,omitempty"`
}
