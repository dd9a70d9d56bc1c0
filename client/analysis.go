package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourusername/clarity-api/internal/assess"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/report"
)

// Decision is the outcome of the short-resume confirmation dialog.
type Decision int

const (
	// DecisionPasteFull closes the dialog so the user can paste the
	// complete resume. Nothing is submitted.
	DecisionPasteFull Decision = iota
	// DecisionReviewAnyway submits the short text as-is.
	DecisionReviewAnyway
)

// Confirmer presents the short-resume dialog. skipFuture mirrors the
// "don't ask again" checkbox: once true, the gate stays open for the
// rest of this client's lifetime.
type Confirmer interface {
	ConfirmShortResume(a assess.Assessment) (d Decision, skipFuture bool)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(a assess.Assessment) (Decision, bool)

func (f ConfirmerFunc) ConfirmShortResume(a assess.Assessment) (Decision, bool) {
	return f(a)
}

// RunOptions selects what RunAnalysis reviews.
type RunOptions struct {
	// Sample reviews the canned sample resume. No network call, no
	// metering, always full access.
	Sample bool
	// Text is the resume to review. Ignored when Sample is set.
	Text string
	// ShortConfirmed submits short text without re-running the gate.
	// Set by callers that already showed their own dialog.
	ShortConfirmed bool
}

// RunResult is the outcome of one RunAnalysis invocation. Exactly one of
// the outcome flags is meaningful: a Report, NeedsConfirmation,
// Cancelled, or PaywallRequired.
type RunResult struct {
	Report *model.ResumeReport
	View   *report.View
	Tier   model.AccessTier

	// Assessment is set whenever the length gate fired, including when
	// the run proceeded after confirmation.
	Assessment *assess.Assessment
	// Hint is a non-blocking formatting nudge shown alongside results.
	Hint string

	NeedsConfirmation bool
	Cancelled         bool
	PaywallRequired   bool
}

// RunAnalysis drives the full review pipeline: local validation, the
// short-resume gate, submission, and tier-aware rendering.
//
// Empty input never reaches the network. A failed run keeps the previous
// report intact (see LastReport). Only one run may be outstanding at a
// time; concurrent calls get ErrRunInFlight.
func (c *Client) RunAnalysis(ctx context.Context, opts RunOptions) (*RunResult, error) {
	c.mu.Lock()
	if c.runInFlight {
		c.mu.Unlock()
		return nil, ErrRunInFlight
	}
	c.runInFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.runInFlight = false
		c.mu.Unlock()
	}()

	if opts.Sample {
		return c.runSample()
	}

	text := strings.TrimSpace(opts.Text)
	if text == "" {
		return nil, &APIError{
			Code:    model.ErrCodeValidation,
			Message: "Paste your resume so I can review it.",
		}
	}
	if len(text) > model.MaxTextLength {
		return nil, &APIError{
			Code:    model.ErrCodeValidation,
			Message: "That's longer than a resume should be. Trim it to 30,000 characters.",
		}
	}

	a := assess.Assess(text)
	shortConfirmed := opts.ShortConfirmed

	c.mu.Lock()
	skip := c.skipShortGate
	c.mu.Unlock()

	if a.ShouldWarn && !shortConfirmed && !skip {
		if c.confirm == nil {
			return &RunResult{NeedsConfirmation: true, Assessment: &a}, nil
		}
		decision, skipFuture := c.confirm.ConfirmShortResume(a)
		if skipFuture {
			c.mu.Lock()
			c.skipShortGate = true
			c.mu.Unlock()
		}
		if decision != DecisionReviewAnyway {
			return &RunResult{Cancelled: true, Assessment: &a}, nil
		}
		shortConfirmed = true
	}
	if a.ShouldWarn && skip {
		shortConfirmed = true
	}

	body := map[string]any{
		"mode":            "resume",
		"text":            text,
		"short_confirmed": shortConfirmed,
	}
	env, status, err := c.doJSON(ctx, "POST", "/api/resume-feedback", body)
	if err != nil {
		return nil, fmt.Errorf("review failed: %w", err)
	}

	if !env.OK {
		switch env.ErrorCode {
		case model.ErrCodeShortResume:
			res := &RunResult{NeedsConfirmation: true}
			var serverAssessment assess.Assessment
			if len(env.Data) > 0 && json.Unmarshal(env.Data, &serverAssessment) == nil {
				res.Assessment = &serverAssessment
			} else {
				res.Assessment = &a
			}
			return res, nil
		case model.ErrCodePaywallRequired:
			if c.paywall != nil {
				c.paywall()
			}
			return &RunResult{PaywallRequired: true}, nil
		default:
			e := apiErrorFrom(env)
			e.Status = status
			return nil, e
		}
	}

	var rep model.ResumeReport
	if err := json.Unmarshal(env.Data, &rep); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}

	tier := env.AccessTier
	if tier == "" {
		tier = model.AccessFreeFull
	}
	view := report.Render(&rep, report.Options{AccessTier: tier})

	c.mu.Lock()
	if text != c.lastText {
		c.ideasText = ""
		c.lastIdeas = nil
		c.sampleRefresh = 0
	}
	c.lastText = text
	c.lastReport = &rep
	c.lastView = &view
	c.lastTier = tier
	c.user = env.User
	c.activePass = env.ActivePass
	c.freeRunIndex = env.FreeRunIndex
	c.freeUsesRemaining = env.FreeUsesRemaining
	c.revealPending = true
	c.mu.Unlock()

	// Full access pre-fetches the question batch so the ideas panel is
	// warm; free tier waits for an explicit request. Fire-and-forget: a
	// slow ideas fetch never delays the report.
	if tier == model.AccessPassFull {
		go func() {
			// Failures surface on the next explicit fetch.
			_, _ = c.RunIdeas(context.Background(), text)
		}()
	}

	res := &RunResult{
		Report: &rep,
		View:   &view,
		Tier:   tier,
	}
	if a.ShouldWarn || a.ShouldHint {
		res.Assessment = &a
	}
	if a.ShouldHint {
		res.Hint = "Tip: resumes read best as bullet points. Consider breaking long paragraphs up."
	}
	return res, nil
}

// runSample serves the canned report locally. The fixture ships with the
// SDK, so the sample works offline and never touches metering.
func (c *Client) runSample() (*RunResult, error) {
	rep := report.SampleReport
	view := report.Render(&rep, report.Options{IsSample: true})

	c.mu.Lock()
	if c.lastText != report.SampleResumeText {
		c.ideasText = ""
		c.lastIdeas = nil
		c.sampleRefresh = 0
	}
	c.lastText = report.SampleResumeText
	c.lastReport = &rep
	c.lastView = &view
	c.lastTier = model.AccessPassFull
	c.revealPending = true
	c.mu.Unlock()

	return &RunResult{Report: &rep, View: &view, Tier: model.AccessPassFull}, nil
}

// ConsumeReveal reports whether the current report still owes its
// one-time reveal animation, and marks it spent. Purely cosmetic state;
// re-rendering the same report never animates twice.
func (c *Client) ConsumeReveal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.revealPending
	c.revealPending = false
	return pending
}

// Clear drops the current report, ideas history and reveal state, e.g.
// when the user clears the input. Session identity is untouched.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastText = ""
	c.lastReport = nil
	c.lastView = nil
	c.lastTier = ""
	c.lastIdeas = nil
	c.ideasText = ""
	c.sampleRefresh = 0
	c.revealPending = false
	c.freeRunIndex = nil
	c.freeUsesRemaining = nil
}
