package domain

import "time"

// Вариант игры в комнате
type Variant string

const (
	VariantMafia Variant = "mafia"
	VariantPoker Variant = "poker"
)

// Статус жизненного цикла комнаты
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
	StatusClosed   RoomStatus = "closed" // опустела до старта, из хранилища не поднимается
)

// Комната. После finished не меняется, хранится только для показа результата
type Room struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	HostID     int64      `json:"host_id"`
	Variant    Variant    `json:"variant"`
	MaxPlayers int        `json:"max_players"`
	Status     RoomStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// только для покера
	SmallBlind int64 `json:"small_blind,omitempty"`
	BuyIn      int64 `json:"buy_in,omitempty"`
}

// Конфиг варианта при создании комнаты
type RoomConfig struct {
	Name       string  `json:"name"`
	Variant    Variant `json:"variant"`
	MaxPlayers int     `json:"max_players"`
	SmallBlind int64   `json:"small_blind,omitempty"`
	BuyIn      int64   `json:"buy_in,omitempty"`
}

// Строка списка комнат
type RoomSummary struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Variant      Variant    `json:"variant"`
	HostID       int64      `json:"host_id"`
	HostName     string     `json:"host_name"`
	MaxPlayers   int        `json:"max_players"`
	PlayersCount int        `json:"players_count"`
	Status       RoomStatus `json:"status"`
	BuyIn        int64      `json:"buy_in,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Место игрока в комнате. Index не меняется, пока место занято
type Seat struct {
	Index  int    `json:"index"`
	UserID int64  `json:"user_id"`
	TgID   int64  `json:"tg_id,omitempty"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`

	IsReady bool `json:"is_ready"`
	// false после выхода из идущей игры
	Active bool `json:"active"`

	// мафия
	IsAlive bool `json:"is_alive"`
	Role    Role `json:"role,omitempty"`

	// покер
	Chips      int64  `json:"chips"`
	IsFolded   bool   `json:"is_folded"`
	CurrentBet int64  `json:"current_bet"`
	HoleCards  []Card `json:"hole_cards,omitempty"`
}

// Кто выиграл
type Winner string

const (
	WinnerTown  Winner = "town"
	WinnerMafia Winner = "mafia"

	// покер: победитель - место в WinnerSeat
	WinnerPlayer Winner = "player"
)
