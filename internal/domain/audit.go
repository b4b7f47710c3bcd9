package domain

import "time"

// Логирование мастхев важных действий
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Категории совершенных действий
const (
	AuditCategoryAuth    = "auth"
	AuditCategoryRoom    = "room"
	AuditCategoryGame    = "game"
	AuditCategoryBalance = "balance"
)

const (
	// Авторизация
	AuditActionLogin = "login"

	// Комнаты
	AuditActionRoomCreate = "room_create"
	AuditActionRoomJoin   = "room_join"
	AuditActionRoomLeave  = "room_leave"

	// Игры
	AuditActionGameStart = "game_start"
	AuditActionGameEnd   = "game_end"

	// Баланс
	AuditActionBuyIn   = "buy_in"
	AuditActionRefund  = "refund"
	AuditActionCashOut = "cash_out"
)
