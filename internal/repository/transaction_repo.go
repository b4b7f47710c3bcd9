package repository

import (
	"context"
	"encoding/json"

	"partyrooms/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// движения по балансу: бай-ины, возвраты, выплаты
type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// пишет транзакцию внутри уже открытой tx, вместе с изменением баланса
func (r *TransactionRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	metaJSON, err := json.Marshal(t.Meta)
	if err != nil || t.Meta == nil {
		metaJSON = []byte("{}")
	}
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (user_id, type, amount, meta)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, t.UserID, t.Type, t.Amount, metaJSON).Scan(&t.ID, &t.CreatedAt)
}

// последние транзакции пользователя
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, amount, meta, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var metaJSON []byte
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &metaJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &t.Meta); err != nil {
			t.Meta = make(map[string]interface{})
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
