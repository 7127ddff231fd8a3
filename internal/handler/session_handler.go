package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_admin/internal/auth"
	"github.com/GTDGit/gtd_admin/internal/cache"
	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/middleware"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

// SessionHandler exchanges identity tokens for console sessions.
type SessionHandler struct {
	store       *cache.TokenStore
	verifier    middleware.TokenVerifier
	registry    *listview.Registry
	rateLimiter *middleware.InvalidAuthRateLimiter
	secure      bool
	maxAge      int
}

// SessionOptions configures the session cookie.
type SessionOptions struct {
	Secure bool
	MaxAge int
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(store *cache.TokenStore, verifier middleware.TokenVerifier, registry *listview.Registry, rateLimiter *middleware.InvalidAuthRateLimiter, opts SessionOptions) *SessionHandler {
	return &SessionHandler{
		store:       store,
		verifier:    verifier,
		registry:    registry,
		rateLimiter: rateLimiter,
		secure:      opts.Secure,
		maxAge:      opts.MaxAge,
	}
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type sessionResponse struct {
	SessionID  string         `json:"sessionId,omitempty"`
	Identity   *auth.Identity `json:"identity"`
	Navigation []auth.NavItem `json:"navigation"`
	Redirect   string         `json:"redirect,omitempty"`
}

func newSessionResponse(sessionID string, identity *auth.Identity) sessionResponse {
	return sessionResponse{
		SessionID:  sessionID,
		Identity:   identity,
		Navigation: auth.VisibleNavigation(identity),
		Redirect:   auth.Guard(identity, "").Redirect(),
	}
}

// SignIn handles POST /session
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Token is required")
		return
	}

	identity, err := h.verifier.Verify(req.Token)
	if err != nil {
		if h.rateLimiter != nil && !h.rateLimiter.Allow(c.ClientIP()) {
			utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many invalid sign-in attempts")
			return
		}
		utils.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	sessionID := uuid.New().String()
	if err := h.store.Save(c.Request.Context(), sessionID, req.Token); err != nil {
		log.Error().Err(err).Msg("Failed to save session")
		utils.Error(c, http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE", "Session store unavailable")
		return
	}

	log.Info().
		Str("user_id", identity.ID).
		Str("role", string(identity.Role)).
		Msg("Console session started")

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sessionID, h.maxAge, "/", "", h.secure, true)
	utils.Success(c, http.StatusCreated, "Signed in", newSessionResponse(sessionID, identity))
}

// Refresh handles PUT /session. The new token must belong to the same user;
// later catalog calls pick it up from the store.
func (h *SessionHandler) Refresh(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		utils.Error(c, http.StatusBadRequest, "NO_SESSION", "Bearer requests have no session to refresh")
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Token is required")
		return
	}
	identity, err := h.verifier.Verify(req.Token)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if current := middleware.GetIdentity(c); current == nil || current.ID != identity.ID {
		utils.Error(c, http.StatusForbidden, "SUBJECT_MISMATCH", "Token belongs to another user")
		return
	}
	if err := h.store.Save(c.Request.Context(), sessionID, req.Token); err != nil {
		log.Error().Err(err).Msg("Failed to refresh session")
		utils.Error(c, http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE", "Session store unavailable")
		return
	}
	utils.Success(c, http.StatusOK, "Session refreshed", newSessionResponse("", identity))
}

// SignOut handles DELETE /session
func (h *SessionHandler) SignOut(c *gin.Context) {
	if sessionID := middleware.GetSessionID(c); sessionID != "" {
		if err := h.store.Delete(c.Request.Context(), sessionID); err != nil {
			log.Warn().Err(err).Msg("Failed to delete session")
		}
		dropped := h.registry.DropSession(sessionID)
		log.Debug().Int("views", dropped).Msg("Console session ended")
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secure, true)
	utils.Success(c, http.StatusOK, "Signed out", gin.H{"redirect": auth.SignIn.Redirect()})
}

// Me handles GET /session/me
func (h *SessionHandler) Me(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Session retrieved", newSessionResponse("", middleware.GetIdentity(c)))
}
