package httpadapter

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

const (
	headerRequestID = "X-Request-ID"
	ownerKey        = "owner_id"
)

// Claims accepts both token layouts in circulation: a flat user_id and the
// nested {"user":{"id":...}} payload issued by the account service.
type Claims struct {
	UserID string      `json:"user_id,omitempty"`
	User   *userClaims `json:"user,omitempty"`

	jwt.RegisteredClaims
}

type userClaims struct {
	ID string `json:"id"`
}

func (c *Claims) owner() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.User != nil && c.User.ID != "":
		return c.User.ID
	default:
		return c.Subject
	}
}

// withRequestID tags every request with an id, reusing the caller's if sent.
func withRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, id)
		c.Request = c.Request.WithContext(observability.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// withLogging logs every request once it has been served.
func withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		observability.LoggerFromContext(c.Request.Context()).Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// withCORS adds basic CORS headers to allow calls from a web front-end.
func withCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authenticate validates an HS256 bearer token and stores the owner id.
// Issuing tokens happens elsewhere.
func authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := parseToken(strings.TrimSpace(token), secret)
		if err != nil {
			observability.LoggerFromContext(c.Request.Context()).Infow("rejected token", "error", err)
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ownerKey, domain.UserID(claims.owner()))
		c.Next()
	}
}

func parseToken(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.owner() == "" {
		return nil, errors.New("token carries no user id")
	}
	return claims, nil
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, map[string]string{"error": msg})
}

func ownerFrom(c *gin.Context) domain.UserID {
	v, _ := c.Get(ownerKey)
	owner, _ := v.(domain.UserID)
	return owner
}
