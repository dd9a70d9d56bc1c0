package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/assess"
	"github.com/yourusername/clarity-api/internal/middleware"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/report"
	"github.com/yourusername/clarity-api/internal/service"
)

// FeedbackGenerator produces the full structured review for a resume.
// Satisfied by service.LLMClient.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, resumeText string) (*model.ResumeReport, error)
}

// SessionState resolves tier and free-run metering for a caller.
// Satisfied by session.Store.
type SessionState interface {
	Snapshot(ctx context.Context, userID *uuid.UUID) (*model.User, *model.ActivePass, error)
	Meter(ctx context.Context, subject string) (runIndex, remaining int, allowed bool, err error)
}

type FeedbackHandler struct {
	llm      FeedbackGenerator
	sessions SessionState
}

func NewFeedbackHandler(llm FeedbackGenerator, sessions SessionState) *FeedbackHandler {
	return &FeedbackHandler{llm: llm, sessions: sessions}
}

type feedbackRequest struct {
	Mode           string `json:"mode"`
	Text           string `json:"text"`
	ShortConfirmed bool   `json:"short_confirmed"`
}

// Run handles POST /api/resume-feedback.
//
// Pipeline: validate → short-resume gate (unless confirmed) → tier
// resolution and free-run metering → upstream generation → envelope
// with data, access tier and fresh session fields.
func (h *FeedbackHandler) Run(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFieldError(c, http.StatusBadRequest, "Send mode and text as JSON.", map[string]string{"body": "invalid JSON"})
		return
	}

	if req.Mode != "resume" {
		respondFieldError(c, http.StatusBadRequest, "Unsupported mode.", map[string]string{"mode": "must be \"resume\""})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondFieldError(c, http.StatusBadRequest, "Paste your resume so I can review it.", map[string]string{"text": "required"})
		return
	}
	if len(text) > model.MaxTextLength {
		respondFieldError(c, http.StatusBadRequest, "That's longer than a resume should be. Trim it to 30,000 characters.", map[string]string{"text": "too long"})
		return
	}

	isSample := text == report.SampleResumeText

	// The sample flow skips gating, metering and the upstream call
	// entirely; it is always full access.
	if isSample {
		c.JSON(http.StatusOK, model.Envelope{
			OK:         true,
			Data:       mustJSON(report.SampleReport),
			AccessTier: model.AccessPassFull,
		})
		return
	}

	a := assess.Assess(text)
	if a.ShouldWarn && !req.ShortConfirmed {
		c.JSON(http.StatusOK, model.Envelope{
			OK:        false,
			ErrorCode: model.ErrCodeShortResume,
			Message:   "This looks shorter than a full resume. Paste the whole thing, or confirm to review it as-is.",
			Data:      mustJSON(a),
		})
		return
	}

	userID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	var (
		tier       = model.AccessFreeFull
		activePass *model.ActivePass
		user       *model.User
		runIndex   *int
		remaining  *int
	)

	if userID != nil {
		var err error
		user, activePass, err = h.sessions.Snapshot(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to resolve session state")
			respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
			return
		}
	}

	if activePass != nil {
		tier = model.AccessPassFull
	} else {
		idx, rem, allowed, err := h.sessions.Meter(ctx, subject(c))
		if err != nil {
			log.Error().Err(err).Msg("Failed to meter free run")
			respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
			return
		}
		if !allowed {
			c.JSON(http.StatusPaymentRequired, model.Envelope{
				OK:        false,
				ErrorCode: model.ErrCodePaywallRequired,
				Message:   "You've used your free reviews. Grab a pass to keep going.",
				User:      user,
			})
			return
		}
		runIndex, remaining = &idx, &rem
	}

	log.Info().
		Int("chars", a.CharCount).
		Int("bullets", a.BulletCount).
		Str("reason", a.Reason).
		Bool("shortConfirmed", req.ShortConfirmed).
		Str("tier", string(tier)).
		Msg("Running resume feedback")

	result, err := h.llm.GenerateFeedback(ctx, text)
	if err != nil {
		var ue *service.UpstreamError
		if errors.As(err, &ue) {
			log.Error().Err(err).Str("code", ue.Code).Msg("Upstream feedback generation failed")
			respondError(c, http.StatusBadGateway, ue.Code, "The reviewer hiccuped. Give it another try.")
			return
		}
		log.Error().Err(err).Msg("Feedback generation failed")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
		return
	}

	c.JSON(http.StatusOK, model.Envelope{
		OK:                true,
		Data:              mustJSON(result),
		AccessTier:        tier,
		ActivePass:        activePass,
		User:              user,
		FreeRunIndex:      runIndex,
		FreeUsesRemaining: remaining,
	})
}
