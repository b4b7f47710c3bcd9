package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"partyrooms/internal/game"
	"partyrooms/internal/rooms"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoomRepository хранит полное состояние комнаты одной строкой jsonb.
// Колонки рядом с state нужны для выборок без разбора json
type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// SaveRoom пишет состояние, только если версия новее сохраненной.
// Запись идет в фоне и может прийти не по порядку
func (r *RoomRepository) SaveRoom(ctx context.Context, t *game.Table) error {
	state, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", t.Room.ID, err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO rooms (id, code, variant, status, host_id, version, state, created_at, finished_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE
		SET code = EXCLUDED.code,
		    status = EXCLUDED.status,
		    host_id = EXCLUDED.host_id,
		    version = EXCLUDED.version,
		    state = EXCLUDED.state,
		    finished_at = EXCLUDED.finished_at,
		    updated_at = NOW()
		WHERE rooms.version < EXCLUDED.version
	`, t.Room.ID, t.Room.Code, t.Room.Variant, t.Room.Status, t.Room.HostID, t.Version, state, t.Room.CreatedAt, t.Room.FinishedAt)
	return err
}

// LoadRoom поднимает последнее сохраненное состояние
func (r *RoomRepository) LoadRoom(ctx context.Context, id string) (*game.Table, error) {
	var state []byte
	err := r.db.QueryRow(ctx, `SELECT state FROM rooms WHERE id = $1`, id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, rooms.ErrNotStored
	}
	if err != nil {
		return nil, err
	}
	t, err := game.DecodeTable(state)
	if err != nil {
		return nil, fmt.Errorf("decode room %s: %w", id, err)
	}
	return t, nil
}
