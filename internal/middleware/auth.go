package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/osvaldoandrade/soapgate/pkg/auth"
	"github.com/osvaldoandrade/soapgate/pkg/config"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token with validator. A nil validator
// lets every caller through in dev and rejects everything elsewhere.
func AuthMiddleware(validator auth.Validator, cfg *config.Config) gin.HandlerFunc {
	dev := cfg == nil || strings.EqualFold(strings.TrimSpace(cfg.Env), "dev")
	return func(c *gin.Context) {
		if validator == nil {
			if !dev {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth provider not configured"})
				return
			}
			setCallerContext(c, &auth.Claims{Subject: "anonymous"}, dev)
			c.Next()
			return
		}
		claims, err := validateBearer(validator, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setCallerContext(c, claims, dev)
		c.Next()
	}
}

func validateBearer(validator auth.Validator, authHeader string) (*auth.Claims, error) {
	if strings.TrimSpace(authHeader) == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}
	token := bearerToken(authHeader)
	if token == "" {
		return nil, fmt.Errorf("invalid Authorization format")
	}
	return validator.Validate(token)
}

func setCallerContext(c *gin.Context, claims *auth.Claims, dev bool) {
	c.Set("callerClaims", claims)
	subject := strings.TrimSpace(claims.Email)
	if subject == "" {
		subject = strings.TrimSpace(claims.Subject)
	}
	c.Set("callerSubject", subject)

	role := claims.Role()
	if role == "" && dev {
		role = strings.ToUpper(strings.TrimSpace(c.GetHeader("X-Role")))
	}
	if role == "" {
		role = "USER"
	}
	c.Set("callerRole", role)
}
