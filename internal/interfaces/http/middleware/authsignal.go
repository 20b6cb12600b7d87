package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/domain/checkout"
)

// authSignalKey is the gin context key for the resolved auth signal
const authSignalKey = "auth_signal"

// TokenValidator resolves a bearer token into an authentication signal
type TokenValidator interface {
	Signal(tokenString string) checkout.AuthSignal
}

// AuthSignal resolves the Authorization header into a checkout auth
// signal and stores it in the request context. A missing or invalid
// token yields a guest signal; the request is never rejected.
func AuthSignal(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		c.Set(authSignalKey, validator.Signal(token))
		c.Next()
	}
}

// GetAuthSignal retrieves the resolved auth signal from gin context
// Returns a guest signal when the middleware did not run
func GetAuthSignal(c *gin.Context) checkout.AuthSignal {
	if value, exists := c.Get(authSignalKey); exists {
		if signal, ok := value.(checkout.AuthSignal); ok {
			return signal
		}
	}
	return checkout.AuthSignal{}
}

// extractBearerToken strips the Bearer prefix from an Authorization header
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
