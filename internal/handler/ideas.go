package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/ideas"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/report"
	"github.com/yourusername/clarity-api/internal/service"
)

// IdeasGenerator produces a missing-wins question batch, optionally
// biased away from recently shown questions. Satisfied by
// service.LLMClient.
type IdeasGenerator interface {
	GenerateIdeas(ctx context.Context, resumeText, diversityHint string) (*model.IdeasData, error)
}

// subjectIdeas is the per-caller dedup state. History only biases
// regeneration, so keeping it in process memory is fine; a restart just
// forgets what was shown.
type subjectIdeas struct {
	history       *ideas.History
	textHash      string
	sampleRefresh int
}

type IdeasHandler struct {
	llm IdeasGenerator

	mu       sync.Mutex
	subjects map[string]*subjectIdeas
}

func NewIdeasHandler(llm IdeasGenerator) *IdeasHandler {
	return &IdeasHandler{
		llm:      llm,
		subjects: make(map[string]*subjectIdeas),
	}
}

type ideasRequest struct {
	Text string `json:"text"`
}

// Run handles POST /api/resume-ideas.
//
// Generates a missing-wins question batch, retrying (capped) when the
// batch collides with the caller's recent history, then records it.
func (h *IdeasHandler) Run(c *gin.Context) {
	var req ideasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFieldError(c, http.StatusBadRequest, "Send text as JSON.", map[string]string{"body": "invalid JSON"})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondFieldError(c, http.StatusBadRequest, "Paste your resume so I can suggest questions.", map[string]string{"text": "required"})
		return
	}
	if len(text) > model.MaxTextLength {
		respondFieldError(c, http.StatusBadRequest, "That's longer than a resume should be. Trim it to 30,000 characters.", map[string]string{"text": "too long"})
		return
	}

	state := h.stateFor(subject(c), text)

	// The sample resume cycles through curated variants and never hits
	// the upstream; the set is already diverse.
	if text == report.SampleResumeText {
		h.mu.Lock()
		batch := ideas.SampleBatch(state.sampleRefresh)
		state.sampleRefresh++
		h.mu.Unlock()

		c.JSON(http.StatusOK, model.Envelope{
			OK: true,
			Data: mustJSON(model.IdeasData{
				Questions: batch,
				Notes:     "These probe the outcomes the sample resume implies but never states.",
				HowToUse:  "Answer each one in a sentence, then fold the best answers back into your bullets.",
			}),
		})
		return
	}

	ctx := c.Request.Context()

	var result *model.IdeasData
	for attempt := 0; ; attempt++ {
		generated, err := h.llm.GenerateIdeas(ctx, text, state.history.DiversityHint())
		if err != nil {
			var ue *service.UpstreamError
			if errors.As(err, &ue) {
				log.Error().Err(err).Str("code", ue.Code).Msg("Upstream ideas generation failed")
				respondError(c, http.StatusBadGateway, ue.Code, "Couldn't come up with fresh questions. Try again.")
				return
			}
			log.Error().Err(err).Msg("Ideas generation failed")
			respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Something glitched on our side. Try again.")
			return
		}

		if state.history.ShouldRetry(generated.Questions, attempt) {
			log.Debug().Int("attempt", attempt).Msg("Ideas batch collided with history, regenerating")
			continue
		}

		result = generated
		break
	}

	state.history.Accept(result.Questions)

	c.JSON(http.StatusOK, model.Envelope{
		OK:   true,
		Data: mustJSON(result),
	})
}

// stateFor returns the caller's dedup state, resetting it when the
// resume text changed since the last call.
func (h *IdeasHandler) stateFor(subj, text string) *subjectIdeas {
	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:8])

	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.subjects[subj]
	if !ok {
		state = &subjectIdeas{history: ideas.NewHistory()}
		h.subjects[subj] = state
	}
	if state.textHash != hash {
		state.history.Reset()
		state.textHash = hash
		state.sampleRefresh = 0
	}
	return state
}
