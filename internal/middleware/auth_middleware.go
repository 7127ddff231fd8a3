package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_admin/internal/auth"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

const (
	// SessionCookie carries the console session id.
	SessionCookie = "console_session"
	// SessionHeader is accepted when cookies are unavailable.
	SessionHeader = "X-Session-ID"

	sessionIDKey = "session_id"
	identityKey  = "identity"
)

// SessionStore is the subset of the token store used to resolve sessions.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Touch(ctx context.Context, sessionID string) error
}

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// AuthMiddleware resolves the console session (or a direct bearer token)
// into an identity and puts both on the request context.
type AuthMiddleware struct {
	sessions    SessionStore
	verifier    TokenVerifier
	rateLimiter *InvalidAuthRateLimiter
}

// NewAuthMiddleware constructs a new AuthMiddleware.
func NewAuthMiddleware(sessions SessionStore, verifier TokenVerifier, rateLimiter *InvalidAuthRateLimiter) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:    sessions,
		verifier:    verifier,
		rateLimiter: rateLimiter,
	}
}

// Handle returns a Gin middleware function that enforces authentication.
// Unauthenticated requests get a 401 pointing at the sign-in screen.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// 1. Session id from cookie or header
		sessionID := SessionIDFromRequest(c)
		var token string
		switch {
		case sessionID != "":
			t, err := m.sessions.Get(ctx, sessionID)
			if err != nil {
				if !errors.Is(err, utils.ErrSessionNotFound) {
					log.Error().Err(err).Msg("Failed to load session")
					utils.Error(c, http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE", "Session store unavailable")
					c.Abort()
					return
				}
				m.handleAuthError(c, "SESSION_EXPIRED", "Session expired, please sign in again")
				return
			}
			token = t
			ctx = auth.WithSession(ctx, sessionID)
		default:
			// 2. Fall back to a bearer token presented directly
			bearer, ok := bearerToken(c)
			if !ok {
				m.handleAuthError(c, "UNAUTHENTICATED", "Sign in required")
				return
			}
			token = bearer
			ctx = auth.WithBearer(ctx, bearer)
		}

		// 3. Verify the identity token
		identity, err := m.verifier.Verify(token)
		if err != nil {
			m.handleAuthError(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		// 4. Slide the session expiry
		if sessionID != "" {
			if err := m.sessions.Touch(ctx, sessionID); err != nil {
				log.Warn().Err(err).Str("session", shortID(sessionID)).Msg("Failed to extend session")
			}
		}

		// 5. Set context values
		c.Set(sessionIDKey, sessionID)
		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(ctx, identity))

		c.Next()
	}
}

func (m *AuthMiddleware) handleAuthError(c *gin.Context, code, message string) {
	// Apply rate limit for invalid auth attempts
	if m.rateLimiter != nil && !m.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Redirect(c, http.StatusUnauthorized, code, message, auth.SignIn.Redirect())
	c.Abort()
}

// SessionIDFromRequest returns the session id from cookie or header.
func SessionIDFromRequest(c *gin.Context) string {
	if id, err := c.Cookie(SessionCookie); err == nil && id != "" {
		return id
	}
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return t, t != ""
}

// GetIdentity returns the authenticated identity from context.
func GetIdentity(c *gin.Context) *auth.Identity {
	v, _ := c.Get(identityKey)
	if v == nil {
		return nil
	}
	return v.(*auth.Identity)
}

// GetSessionID returns the console session id, empty for bearer requests.
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
