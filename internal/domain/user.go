package domain

import "time"

type User struct {
	ID        int64     `db:"id" json:"id"`
	TgID      int64     `db:"tg_id" json:"tg_id"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"first_name"`
	PhotoURL  string    `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Gems      int64     `db:"gems" json:"gems"` // баланс, из него списывается бай-ин
}

// DisplayName - имя для места за столом
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Движение по балансу
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      string                 `db:"type" json:"type"`
	Amount    int64                  `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Типы транзакций комнат
const (
	TxBuyIn   = "room_buy_in"
	TxRefund  = "room_refund"
	TxCashOut = "room_cash_out"
)
