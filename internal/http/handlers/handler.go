package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"partyrooms/internal/domain"
	"partyrooms/internal/http/middleware"
	"partyrooms/internal/logger"
	"partyrooms/internal/rooms"
	"partyrooms/internal/service"
)

// Handler держит зависимости хендлеров. Auth и Balance могут быть nil без базы
type Handler struct {
	Hub          *rooms.Hub
	Auth         *service.AuthService
	Balance      *service.BalanceService
	AuditService *service.AuditService
}

func getPrincipal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "user not found"})
	}
	return p, ok
}

// статус по классу ошибки
var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:    http.StatusBadRequest,
	domain.KindStateConflict: http.StatusConflict,
	domain.KindCapacity:      http.StatusConflict,
	domain.KindAuthorization: http.StatusForbidden,
	domain.KindNotFound:      http.StatusNotFound,
	domain.KindExternal:      http.StatusBadGateway,
}

// writeError отвечает {"error": code, "kind": kind, "message": text}.
// Внутренние ошибки клиенту не раскрываются
func writeError(c *gin.Context, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		logger.Error("request failed", "path", c.Request.URL.Path, "action", c.Query("action"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "kind": "internal", "message": "internal error"})
		return
	}
	status := kindStatus[de.Kind]
	if errors.Is(err, domain.ErrInsufficientFunds) {
		status = http.StatusPaymentRequired
	}
	if de.Kind == domain.KindExternal {
		logger.Warn("external dependency failed", "code", de.Code, "error", err)
	}
	c.JSON(status, gin.H{"error": de.Code, "kind": de.Kind, "message": de.Message})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "kind": domain.KindValidation, "message": msg})
}
