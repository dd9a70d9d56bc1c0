package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"github.com/yourusername/clarity-api/internal/model"
)

// UpstreamError pairs a failure with the stable envelope code clients
// branch on. All generation failures are recoverable by re-submitting.
type UpstreamError struct {
	Code string
	err  error
}

func (e *UpstreamError) Error() string { return e.err.Error() }
func (e *UpstreamError) Unwrap() error { return e.err }

func upstreamErr(code string, format string, args ...any) *UpstreamError {
	return &UpstreamError{Code: code, err: fmt.Errorf(format, args...)}
}

// NewUpstreamError wraps err under a stable envelope code.
func NewUpstreamError(code string, err error) *UpstreamError {
	return &UpstreamError{Code: code, err: err}
}

// LLMClient wraps the OpenAI-compatible chat completions API behind a
// circuit breaker, so a flapping upstream fails fast instead of tying
// up request handlers.
type LLMClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
}

func NewLLMClient(apiKey, baseURL, modelName string) *LLMClient {
	settings := gobreaker.Settings{
		Name:        "llm-upstream",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Upstream circuit breaker state changed")
		},
	}

	return &LLMClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   modelName,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

// ── OpenAI-compatible request/response types ──────────

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

const feedbackSystemPrompt = `You are a blunt but constructive resume reviewer. Score resumes for clarity and return structured feedback.

Respond with ONLY a JSON object (no markdown, no backticks, no explanation):
{
  "score": 74,
  "score_label": "Solid base",
  "score_comment_short": "One sentence on the overall impression.",
  "score_comment_long": "Two or three sentences expanding on the impression.",
  "summary": "Two to four sentences. Open with the verdict.",
  "strengths": ["What genuinely works, 2-5 items"],
  "gaps": ["Specific weaknesses ordered by severity, 3-8 items"],
  "rewrites": [
    {"label": "Clarity", "original": "bullet as written", "better": "rewritten bullet", "enhancement_note": "why the rewrite is stronger"}
  ],
  "next_steps": ["Concrete next actions, 2-4 items"],
  "missing_wins": ["Interview questions surfacing unstated achievements, 2-4 items"],
  "suggested_bullets": ["Optional new bullets the resume should carry"]
}

Rules:
- score is an integer 0-100 for clarity, not seniority.
- rewrite labels should name the concern: Clarity, Conciseness, Phrasing, Impact, Scope, Ownership, or similar.
- Every gap must tell the user exactly what to change.
- Quote the resume's own text in rewrite originals.`

const ideasSystemPrompt = `You generate "missing wins" interview questions: questions that surface achievements a resume hints at but never states.

Respond with ONLY a JSON object (no markdown, no backticks):
{
  "questions": ["3 specific questions tied to this resume's content"],
  "notes": "One sentence on the pattern these questions probe.",
  "how_to_use": "One sentence telling the user what to do with them."
}

Rules:
- Every question must reference something concrete from the resume.
- Never ask generic interview questions.`

// GenerateFeedback scores a resume and returns the structured report.
func (c *LLMClient) GenerateFeedback(ctx context.Context, resumeText string) (*model.ResumeReport, error) {
	content, err := c.complete(ctx, feedbackSystemPrompt, "Review this resume and return the JSON:\n\n"+resumeText, 3000)
	if err != nil {
		return nil, err
	}

	var report model.ResumeReport
	if err := json.Unmarshal([]byte(content), &report); err != nil {
		return nil, upstreamErr(model.ErrCodeUpstreamParse, "parsing feedback content: %w (raw: %s)", err, truncate(content, 200))
	}
	if report.Summary == "" && len(report.Gaps) == 0 && len(report.Strengths) == 0 {
		return nil, upstreamErr(model.ErrCodeUpstreamBadShape, "feedback content missing required fields (raw: %s)", truncate(content, 200))
	}
	return &report, nil
}

// GenerateIdeas produces a missing-wins question batch. diversityHint
// may list recently shown questions to avoid; empty means no bias.
func (c *LLMClient) GenerateIdeas(ctx context.Context, resumeText, diversityHint string) (*model.IdeasData, error) {
	user := "Generate missing-wins questions for this resume and return the JSON:\n\n" + resumeText
	if diversityHint != "" {
		user += "\n\n" + diversityHint
	}

	content, err := c.complete(ctx, ideasSystemPrompt, user, 800)
	if err != nil {
		return nil, err
	}

	var ideas model.IdeasData
	if err := json.Unmarshal([]byte(content), &ideas); err != nil {
		return nil, upstreamErr(model.ErrCodeUpstreamParse, "parsing ideas content: %w (raw: %s)", err, truncate(content, 200))
	}
	if len(ideas.Questions) == 0 {
		return nil, upstreamErr(model.ErrCodeUpstreamBadShape, "ideas content has no questions (raw: %s)", truncate(content, 200))
	}
	return &ideas, nil
}

// complete runs one chat completion through the breaker and returns the
// fence-stripped message content.
func (c *LLMClient) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", upstreamErr(model.ErrCodeUpstreamHTTP, "model API key not configured")
	}

	content, err := c.breaker.Execute(func() (string, error) {
		return c.doComplete(ctx, system, user, maxTokens)
	})
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return "", ue
		}
		// Breaker open or half-open rejection
		return "", upstreamErr(model.ErrCodeUpstreamNetwork, "upstream unavailable: %w", err)
	}
	return content, nil
}

func (c *LLMClient) doComplete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", upstreamErr(model.ErrCodeUpstreamNetwork, "marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", upstreamErr(model.ErrCodeUpstreamNetwork, "creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", upstreamErr(model.ErrCodeUpstreamNetwork, "reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", upstreamErr(model.ErrCodeUpstreamHTTP, "upstream returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", upstreamErr(model.ErrCodeUpstreamNotJSON, "upstream body is not JSON: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", upstreamErr(model.ErrCodeUpstreamBadShape, "upstream response has no choices")
	}

	log.Debug().
		Int("promptTokens", parsed.Usage.PromptTokens).
		Int("completionTokens", parsed.Usage.CompletionTokens).
		Msg("Chat completion finished")

	return stripCodeFences(strings.TrimSpace(parsed.Choices[0].Message.Content)), nil
}

func classifyTransportErr(err error) *UpstreamError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return upstreamErr(model.ErrCodeUpstreamTimeout, "upstream timed out: %w", err)
	}
	return upstreamErr(model.ErrCodeUpstreamNetwork, "calling upstream: %w", err)
}

// stripCodeFences removes markdown ```json ... ``` wrappers
func stripCodeFences(text string) string {
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
