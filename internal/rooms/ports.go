package rooms

import (
	"context"
	"errors"

	"partyrooms/internal/domain"
	"partyrooms/internal/game"
)

// Wallet - баланс игрока, из него списывается бай-ин
type Wallet interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	Debit(ctx context.Context, userID int64, amount int64, txType string, meta map[string]interface{}) (int64, error)
	Credit(ctx context.Context, userID int64, amount int64, txType string, meta map[string]interface{}) (int64, error)
}

// Store - долговременная запись комнат
type Store interface {
	SaveRoom(ctx context.Context, t *game.Table) error
	LoadRoom(ctx context.Context, id string) (*game.Table, error)
}

// ErrNotStored возвращает Store, если записи нет
var ErrNotStored = errors.New("room not stored")

// Notifier сообщает игрокам о старте и конце игры вне приложения
type Notifier interface {
	GameStarted(ctx context.Context, room domain.Room, seats []domain.Seat)
	GameFinished(ctx context.Context, room domain.Room, state domain.GameState, seats []domain.Seat)
}

type Auditor interface {
	Log(ctx context.Context, userID int64, action, category string, details map[string]interface{})
}

// заглушки, когда зависимость не подключена

type noopStore struct{}

func (noopStore) SaveRoom(context.Context, *game.Table) error { return nil }
func (noopStore) LoadRoom(context.Context, string) (*game.Table, error) {
	return nil, ErrNotStored
}

type noopNotifier struct{}

func (noopNotifier) GameStarted(context.Context, domain.Room, []domain.Seat) {}
func (noopNotifier) GameFinished(context.Context, domain.Room, domain.GameState, []domain.Seat) {
}

type noopAuditor struct{}

func (noopAuditor) Log(context.Context, int64, string, string, map[string]interface{}) {}
