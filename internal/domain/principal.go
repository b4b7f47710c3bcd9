package domain

// Аутентифицированный игрок, приходит из JWT
type Principal struct {
	UserID int64  `json:"user_id"`
	TgID   int64  `json:"tg_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}
