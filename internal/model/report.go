package model

import "encoding/json"

// MaxTextLength caps submitted resume text. Anything longer is a paste
// accident, not a resume. Enforced on both sides of the wire.
const MaxTextLength = 30000

// ResumeReport is the structured feedback produced by the upstream model.
// Narrative fields (ScoreLabel, ScoreComment*) are optional; the renderer
// falls back to the static score-band table when they are empty.
type ResumeReport struct {
	Score             *float64  `json:"score,omitempty"`
	ScoreLabel        string    `json:"score_label,omitempty"`
	ScoreCommentShort string    `json:"score_comment_short,omitempty"`
	ScoreCommentLong  string    `json:"score_comment_long,omitempty"`
	Summary           string    `json:"summary"`
	Strengths         []string  `json:"strengths"`
	Gaps              []string  `json:"gaps"`
	Rewrites          []Rewrite `json:"rewrites"`
	NextSteps         []string  `json:"next_steps,omitempty"`
	MissingWins       []string  `json:"missing_wins,omitempty"`
	SuggestedBullets  []string  `json:"suggested_bullets,omitempty"`
}

// Rewrite is a single before/after suggestion. Label is free text that
// the renderer clusters into buckets by substring match.
type Rewrite struct {
	Label           string `json:"label"`
	Original        string `json:"original"`
	Better          string `json:"better"`
	EnhancementNote string `json:"enhancement_note,omitempty"`
}

// IdeasData is the payload of a resume-ideas response.
type IdeasData struct {
	Questions []string `json:"questions"`
	Notes     string   `json:"notes,omitempty"`
	HowToUse  string   `json:"how_to_use,omitempty"`
}

// Envelope is the uniform response shape for all JSON endpoints.
type Envelope struct {
	OK                bool            `json:"ok"`
	Data              json.RawMessage `json:"data,omitempty"`
	AccessTier        AccessTier      `json:"access_tier,omitempty"`
	ActivePass        *ActivePass     `json:"active_pass,omitempty"`
	User              *User           `json:"user,omitempty"`
	FreeRunIndex      *int            `json:"free_run_index,omitempty"`
	FreeUsesRemaining *int            `json:"free_uses_remaining,omitempty"`
	ErrorCode         string          `json:"errorCode,omitempty"`
	Message           string          `json:"message,omitempty"`
	Details           *ErrorDetails   `json:"details,omitempty"`
}

// ErrorDetails carries per-field validation failures.
type ErrorDetails struct {
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// Stable error codes surfaced in the envelope. Clients map these to
// user-facing strings; the codes themselves never change.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeShortResume      = "SHORT_RESUME_WARNING"
	ErrCodePaywallRequired  = "PAYWALL_REQUIRED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeUpstreamTimeout  = "OPENAI_TIMEOUT"
	ErrCodeUpstreamNetwork  = "OPENAI_NETWORK_ERROR"
	ErrCodeUpstreamHTTP     = "OPENAI_HTTP_ERROR"
	ErrCodeUpstreamParse    = "OPENAI_RESPONSE_PARSE_ERROR"
	ErrCodeUpstreamNotJSON  = "OPENAI_RESPONSE_NOT_JSON"
	ErrCodeUpstreamBadShape = "OPENAI_RESPONSE_SHAPE_INVALID"
)
