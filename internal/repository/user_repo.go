package repository

import (
	"context"
	"errors"

	"partyrooms/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertByTgID создает пользователя при первом входе, иначе обновляет имя и аватар.
// Баланс новому пользователю ставит default колонки
func (r *UserRepository) UpsertByTgID(ctx context.Context, u *domain.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (tg_id, username, first_name, photo_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tg_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    photo_url = EXCLUDED.photo_url
		RETURNING id, gems, created_at
	`, u.TgID, u.Username, u.FirstName, u.PhotoURL).Scan(&u.ID, &u.Gems, &u.CreatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		SELECT id, tg_id, username, first_name, photo_url, gems, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.PhotoURL, &u.Gems, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
