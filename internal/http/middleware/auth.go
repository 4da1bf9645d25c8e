package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/requestdata"
)

// AuthMiddleware verifies bearer tokens issued by the platform's auth
// service and attaches the caller's identity and session to the request
// context. Tokens are verified only; this service never issues them.
type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("middleware", "auth"),
		secret: []byte(secret),
	}
}

// Attach resolves identity and session for every request. A missing or
// invalid token leaves the caller anonymous rather than rejecting:
// accessibility features work without an account, they just do not
// persist. A missing session ID gets a fresh one, echoed back in the
// X-Session-ID response header.
func (am *AuthMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &requestdata.RequestData{}

		if tokenString := extractToken(c); tokenString != "" {
			if userID, err := am.verify(tokenString); err != nil {
				am.log.Debug("token rejected, continuing anonymous", "error", err.Error())
			} else {
				rd.TokenString = tokenString
				rd.UserID = userID
			}
		}

		rd.SessionID = extractSessionID(c)
		if rd.SessionID == uuid.Nil {
			rd.SessionID = uuid.New()
		}
		c.Header("X-Session-ID", rd.SessionID.String())

		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// RequireAuth gates endpoints that only make sense for a signed-in user.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("unexpected claims type")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, fmt.Errorf("missing subject claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("subject is not a uuid: %w", err)
	}
	return userID, nil
}

func extractToken(c *gin.Context) string {
	// Query token supports EventSource, which cannot set headers.
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

func extractSessionID(c *gin.Context) uuid.UUID {
	raw := c.GetHeader("X-Session-ID")
	if raw == "" {
		raw = c.Query("session_id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
