package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talentscout/backend/internal/repository/dao"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

const lookupTimeout = 5 * time.Second

// Auth resolves session cookies issued by the web app's auth provider.
type Auth struct {
	sessions dao.SessionDAO
	cookies  []string
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuth creates an authenticator that checks cookies in order.
func NewAuth(sessions dao.SessionDAO, cookies []string, logger *zap.Logger) *Auth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auth{sessions: sessions, cookies: cookies, logger: logger, now: time.Now}
}

// Identify returns the user owning r's session. It has the shape of a
// realtime.Identifier so handshakes can be tagged up front.
func (a *Auth) Identify(r *http.Request) (string, bool) {
	for _, name := range a.cookies {
		cookie, err := r.Cookie(name)
		if err != nil || cookie.Value == "" {
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
		userID, err := a.sessions.FindUserID(ctx, cookie.Value, a.now())
		cancel()
		if err == nil && userID != "" {
			return userID, true
		}
		if err != nil && !errors.Is(err, dao.ErrNotFound) {
			a.logger.Warn("session lookup failed", zap.String("cookie", name), zap.Error(err))
		}
	}
	return "", false
}

// RequireUser rejects requests without a valid session.
func (a *Auth) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := a.Identify(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
