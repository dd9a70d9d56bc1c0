package handler

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/middleware"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/repository"
	"github.com/yourusername/clarity-api/internal/session"
)

type AuthHandler struct {
	users    *repository.UserRepo
	sessions *session.Store
	auth     *middleware.AuthMiddleware
	devMode  bool
}

func NewAuthHandler(users *repository.UserRepo, sessions *session.Store, auth *middleware.AuthMiddleware, devMode bool) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, auth: auth, devMode: devMode}
}

// RequestCode handles POST /api/login/request-code.
// Stores a one-time 6-digit code for the email with a short TTL.
// Delivery is handled out-of-band; in development the code is logged.
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFieldError(c, http.StatusBadRequest, "Send your email as JSON.", map[string]string{"body": "invalid JSON"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		respondFieldError(c, http.StatusBadRequest, "That doesn't look like an email address.", map[string]string{"email": "invalid"})
		return
	}

	code, err := generateCode()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate login code")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
		return
	}

	if err := h.sessions.StoreLoginCode(c.Request.Context(), email, code); err != nil {
		log.Error().Err(err).Msg("Failed to store login code")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
		return
	}

	if h.devMode {
		log.Info().Str("email", email).Str("code", code).Msg("Login code issued (dev mode)")
	} else {
		log.Info().Str("email", email).Msg("Login code issued")
	}

	c.JSON(http.StatusOK, model.Envelope{OK: true, Message: "Code sent. Check your inbox."})
}

// Verify handles POST /api/login/verify.
// Consumes the code, upserts the user and returns a session token.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFieldError(c, http.StatusBadRequest, "Send email and code as JSON.", map[string]string{"body": "invalid JSON"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ok, err := h.sessions.ConsumeLoginCode(c.Request.Context(), email, req.Code)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check login code")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
		return
	}
	if !ok {
		respondFieldError(c, http.StatusBadRequest, "That code didn't match. Check it and try again.", map[string]string{"code": "invalid or expired"})
		return
	}

	user, err := h.users.Upsert(c.Request.Context(), email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upsert user on login")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
		return
	}

	token, err := h.auth.IssueToken(user.ID, user.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue session token")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
		return
	}

	activePass, err := h.sessions.ActivePass(c.Request.Context(), user.ID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load pass on login")
	}

	c.JSON(http.StatusOK, model.Envelope{
		OK:         true,
		Data:       mustJSON(gin.H{"token": token, "user": user}),
		User:       user,
		ActivePass: activePass,
	})
}

// generateCode returns a 6-digit numeric login code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generating login code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
