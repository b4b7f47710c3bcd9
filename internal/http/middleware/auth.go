package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"partyrooms/internal/domain"
	"partyrooms/internal/service"
)

const principalKey = "principal"

// Auth пускает только с валидным JWT: заголовок Authorization: Bearer или ?token=
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "token required"})
			return
		}
		p, err := service.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid token"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// Principal - игрок, положенный Auth в контекст
func Principal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}
