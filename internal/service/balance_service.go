package service

import (
	"context"
	"errors"

	"partyrooms/internal/domain"
	"partyrooms/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// тот же sentinel, что видит менеджер комнат
	ErrInsufficientFunds = domain.ErrInsufficientFunds
	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrInvalidAmount     = errors.New("неверная сумма")
)

// обрабатывает все операции с балансом
type BalanceService struct {
	db              *pgxpool.Pool
	transactionRepo *repository.TransactionRepository
}

// создает новый сервис баланса
func NewBalanceService(db *pgxpool.Pool) *BalanceService {
	return &BalanceService{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// возвращает текущий баланс пользователя
func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT gems FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Debit списывает бай-ин. Строка пользователя блокируется, поэтому два
// бай-ина не пройдут по одному балансу
func (s *BalanceService) Debit(ctx context.Context, userID int64, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.move(ctx, userID, -amount, txType, meta)
}

// Credit возвращает фишки на баланс: возврат бай-ина или остаток стека
func (s *BalanceService) Credit(ctx context.Context, userID int64, amount int64, txType string, meta map[string]interface{}) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.move(ctx, userID, amount, txType, meta)
}

// move меняет баланс на delta и пишет транзакцию в одной tx
func (s *BalanceService) move(ctx context.Context, userID, delta int64, txType string, meta map[string]interface{}) (newBalance int64, err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance int64
	err = tx.QueryRow(ctx, `SELECT gems FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if balance+delta < 0 {
		return 0, ErrInsufficientFunds
	}

	err = tx.QueryRow(ctx, `UPDATE users SET gems = gems + $1 WHERE id = $2 RETURNING gems`, delta, userID).Scan(&newBalance)
	if err != nil {
		return 0, err
	}

	if err = s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID: userID,
		Type:   txType,
		Amount: delta,
		Meta:   meta,
	}); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// возвращает историю транзакций пользователя
func (s *BalanceService) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetByUserID(ctx, userID, limit)
}
