package domain

import "time"

// Канал видимости сообщения, определяется в момент отправки
type Channel string

const (
	ChannelSystem Channel = "system"
	ChannelPublic Channel = "public"
	ChannelMafia  Channel = "mafia"
)

// Сообщение чата комнаты. Только добавляются
type Message struct {
	ID        int64     `json:"id"`
	Seat      *int      `json:"seat,omitempty"` // nil для системных
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Phase     Phase     `json:"phase"`
	Channel   Channel   `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSystem - сообщение сервера
func (m Message) IsSystem() bool {
	return m.Channel == ChannelSystem
}
