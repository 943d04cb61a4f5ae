package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mandacaru/erp-api/internal/config"
	"github.com/mandacaru/erp-api/internal/httperr"
)

const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operador"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, code := parseBearer(c, cfg)
		if code != "" {
			httperr.Unauthorized(c, code, "Autenticação necessária.")
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, role)

		c.Next()
	}
}

// OptionalAuth preenche o contexto quando há token válido e segue sem ele
// caso contrário. Usado no registro, que é aberto só no bootstrap.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, role, code := parseBearer(c, cfg); code == "" {
			c.Set(ContextUserID, userID)
			c.Set(ContextUserRole, role)
		}
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		httperr.Forbidden(c, "forbidden", "Permissão insuficiente.")
	}
}

// AdminForDelete exige perfil admin apenas em DELETE.
func AdminForDelete() gin.HandlerFunc {
	admin := RequireRole(RoleAdmin)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodDelete {
			admin(c)
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}

// UserIDPtr é o formato usado em colunas opcionais (auditoria, movimentações).
func UserIDPtr(c *gin.Context) *uint {
	id := UserID(c)
	if id == 0 {
		return nil
	}
	return &id
}

func parseBearer(c *gin.Context, cfg *config.Config) (uint, string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return 0, "", "missing_authorization_header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, "", "invalid_authorization_header"
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", "invalid_token"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", "invalid_token_claims"
	}

	userID, ok := claims["sub"].(float64)
	if !ok || userID <= 0 {
		return 0, "", "invalid_token_payload"
	}
	role, _ := claims["role"].(string)

	return uint(userID), role, ""
}
