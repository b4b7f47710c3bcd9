package service

import (
	"context"

	"partyrooms/internal/domain"
	"partyrooms/internal/logger"
	"partyrooms/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// обрабатывает логирование аудита
type AuditService struct {
	repo *repository.AuditRepository
}

// создает новый сервис аудита
func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(db),
	}
}

// создает новую запись в журнале аудита. Ошибка записи только логируется
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	log := &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  details,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", action, "user_id", userID)
	}
}

// создает запись аудита с информацией о запросе (ip, user-agent)
func (s *AuditService) LogWithRequest(ctx context.Context, userID int64, action, category, ip, userAgent string, details map[string]interface{}) {
	log := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", action, "user_id", userID)
	}
}

// логирует вход пользователя
func (s *AuditService) LogLogin(ctx context.Context, userID int64, ip, userAgent string) {
	s.LogWithRequest(ctx, userID, domain.AuditActionLogin, domain.AuditCategoryAuth, ip, userAgent, nil)
}

// возвращает записи аудита для пользователя
func (s *AuditService) GetUserAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByUserID(ctx, userID, limit)
}

// история комнаты: создание, входы, старт, итог
func (s *AuditService) GetRoomAuditLogs(ctx context.Context, roomID string, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByRoomID(ctx, roomID, limit)
}
