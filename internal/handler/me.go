package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/middleware"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/session"
)

type MeHandler struct {
	sessions *session.Store
}

func NewMeHandler(sessions *session.Store) *MeHandler {
	return &MeHandler{sessions: sessions}
}

// Get handles GET /api/me. Guests get an empty-but-ok envelope; the
// client degrades to guest state on its own timeout.
func (h *MeHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, activePass, err := h.sessions.Snapshot(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load session snapshot")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
		return
	}

	c.JSON(http.StatusOK, model.Envelope{
		OK:         true,
		User:       user,
		ActivePass: activePass,
	})
}
