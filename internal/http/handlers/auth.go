package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"partyrooms/internal/domain"
	"partyrooms/internal/logger"
	"partyrooms/internal/service"
)

const meHistoryLimit = 50

// TelegramAuth меняет init_data мини-приложения на JWT
func (h *Handler) TelegramAuth(c *gin.Context) {
	if h.Auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth_unavailable", "message": "auth is not configured"})
		return
	}
	var req struct {
		InitData string `json:"init_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "init_data required")
		return
	}

	token, user, err := h.Auth.Login(c.Request.Context(), req.InitData, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, service.ErrInvalidInitData) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_init_data", "message": "invalid telegram init data"})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me - текущий профиль, баланс, последние движения по нему и действия в комнатах
func (h *Handler) Me(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	if h.Auth == nil || h.Balance == nil {
		c.JSON(http.StatusOK, gin.H{"user": p})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Auth.Me(ctx, p.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found", "message": "user not found"})
		return
	}

	var audit activitySource
	if h.AuditService != nil {
		audit = h.AuditService
	}
	history, activity := meFeed(ctx, p.UserID, h.Balance, audit)
	c.JSON(http.StatusOK, gin.H{"user": user, "history": history, "activity": activity})
}

type historySource interface {
	GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
}

type activitySource interface {
	GetUserAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
}

// meFeed собирает ленты профиля. Ошибка ленты не валит ответ: профиль
// отдается с пустым списком, а сбой пишется в лог
func meFeed(ctx context.Context, userID int64, balance historySource, audit activitySource) (history, activity []map[string]interface{}) {
	history = make([]map[string]interface{}, 0)
	activity = make([]map[string]interface{}, 0)

	transactions, err := balance.GetTransactionHistory(ctx, userID, meHistoryLimit)
	if err != nil {
		logger.Warn("transaction history failed", "user_id", userID, "error", err)
	}
	for _, tx := range transactions {
		history = append(history, map[string]interface{}{
			"type":   tx.Type,
			"amount": tx.Amount,
			"meta":   tx.Meta,
			"date":   tx.CreatedAt,
		})
	}

	if audit == nil {
		return history, activity
	}
	logs, err := audit.GetUserAuditLogs(ctx, userID, meHistoryLimit)
	if err != nil {
		logger.Warn("audit history failed", "user_id", userID, "error", err)
	}
	for _, l := range logs {
		activity = append(activity, map[string]interface{}{
			"action":   l.Action,
			"category": l.Category,
			"details":  l.Details,
			"date":     l.CreatedAt,
		})
	}
	return history, activity
}
