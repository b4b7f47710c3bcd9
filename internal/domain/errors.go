package domain

import "errors"

// Класс ошибки, по нему хендлер выбирает HTTP статус
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindStateConflict ErrorKind = "state_conflict"
	KindCapacity      ErrorKind = "capacity"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindExternal      ErrorKind = "external_dependency"
)

// Ошибка комнаты со стабильным кодом для клиента
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrInvalidConfig  = newError(KindValidation, "invalid_config", "invalid room config")
	ErrInvalidTarget  = newError(KindValidation, "invalid_target", "invalid target")
	ErrInvalidAmount  = newError(KindValidation, "invalid_amount", "invalid amount")
	ErrInvalidAction  = newError(KindValidation, "invalid_action", "action is not allowed here")
	ErrInvalidMessage = newError(KindValidation, "invalid_message", "message is empty or too long")

	ErrRoomNotJoinable = newError(KindStateConflict, "room_not_joinable", "room is not accepting players")
	ErrAlreadySeated   = newError(KindStateConflict, "already_seated", "already seated in this room")
	ErrNotYourTurn     = newError(KindStateConflict, "not_your_turn", "you cannot act right now")
	ErrWrongPhase      = newError(KindStateConflict, "wrong_phase", "action does not match current phase")
	ErrNotWaiting      = newError(KindStateConflict, "not_waiting", "room is not waiting for players")
	ErrPlayersNotReady = newError(KindStateConflict, "players_not_ready", "not every player is ready")
	ErrChatNotAllowed  = newError(KindStateConflict, "chat_not_allowed", "chat is closed for you now")
	ErrRoomFinished    = newError(KindStateConflict, "room_finished", "room is finished")

	ErrRoomFull      = newError(KindCapacity, "room_full", "room is full")
	ErrNotEnoughSeat = newError(KindCapacity, "not_enough_players", "not enough players to start")

	ErrNotHost   = newError(KindAuthorization, "not_host", "only the host can do this")
	ErrNotSeated = newError(KindAuthorization, "not_seated", "you are not seated in this room")

	ErrRoomNotFound = newError(KindNotFound, "room_not_found", "room not found")

	ErrInsufficientFunds  = newError(KindExternal, "insufficient_funds", "insufficient funds for buy-in")
	ErrBalanceUnavailable = newError(KindExternal, "balance_unavailable", "balance service unavailable")
)

// KindOf возвращает класс ошибки, пустой для внутренних ошибок
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// AsError достает *Error из цепочки
func AsError(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}
