package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"shift-tracker/internal/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Ключи контекста запроса
const (
	ContextDriverID = "driver_id"
	ContextRole     = "role"
)

// Claims токен провайдера идентификации. Subject содержит ID пользователя.
type Claims struct {
	jwt.RegisteredClaims
	Role entities.Role `json:"role"`
}

// TokenVerifier проверяет подпись и срок действия токена
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier создает TokenVerifier для HS256 токенов
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Verify разбирает токен и возвращает claims
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, entities.ErrUnauthorized
	}

	if claims.Role == "" {
		claims.Role = entities.RoleDriver
	}
	if !claims.Role.IsValid() {
		return nil, entities.ErrUnauthorized
	}

	return claims, nil
}

// Issue подписывает токен, используется в тестах и локальной разработке
func (v *TokenVerifier) Issue(claims *Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Auth middleware для аутентификации по Bearer токену
func Auth(verifier *TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("Token rejected",
				zap.Error(err),
				zap.String("request_id", c.GetString("request_id")),
			)
			message := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "Token expired"
			}
			abortUnauthorized(c, message)
			return
		}

		c.Set(ContextDriverID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin пропускает владельца ресурса :param или администратора
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAdmin(c) || c.Param(param) == CurrentDriverID(c) {
			c.Next()
			return
		}
		abortForbidden(c)
	}
}

// CurrentDriverID ID пользователя из токена
func CurrentDriverID(c *gin.Context) string {
	return c.GetString(ContextDriverID)
}

// IsAdmin проверяет роль из токена
func IsAdmin(c *gin.Context) bool {
	role, _ := c.Get(ContextRole)
	r, ok := role.(entities.Role)
	return ok && r == entities.RoleAdmin
}

// bearerToken достает токен из заголовка, для websocket допускается параметр access_token
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if c.IsWebsocket() {
		return c.Query("access_token")
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}

func abortForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": "Permission denied",
		"code":  "FORBIDDEN",
	})
}
