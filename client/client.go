// Package client is the Go SDK for the ResumeClarity API. It drives the
// full analysis pipeline: length gating before any network call,
// submission, tier-aware rendering, ideas refresh, session state and the
// paywall trigger.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/report"
)

const (
	// sessionRefreshTimeout bounds the /api/me call on startup. Past it
	// the client silently degrades to guest rather than blocking the UI.
	sessionRefreshTimeout = 3 * time.Second

	defaultRequestTimeout = 90 * time.Second
)

// Session is the client's view of who is calling and what they can see.
type Session struct {
	User       *model.User
	ActivePass *model.ActivePass
	Tier       model.AccessTier
}

// Client talks to a ResumeClarity API server. Safe for concurrent use;
// concurrent RunAnalysis/RunIdeas calls beyond the first are rejected
// rather than queued.
type Client struct {
	baseURL string
	httpc   *http.Client

	confirm Confirmer
	paywall func()

	mu            sync.Mutex
	token         string
	runInFlight   bool
	ideasInFlight bool
	skipShortGate bool
	revealPending bool

	lastText   string
	lastReport *model.ResumeReport
	lastView   *report.View
	lastTier   model.AccessTier

	user              *model.User
	activePass        *model.ActivePass
	freeRunIndex      *int
	freeUsesRemaining *int

	sampleRefresh int
	ideasText     string
	lastIdeas     *model.IdeasData
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithToken sets the bearer token for an already logged-in user.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithConfirmer installs the short-resume confirmation hook. Without one,
// RunAnalysis returns a NeedsConfirmation result instead of blocking.
func WithConfirmer(cf Confirmer) Option {
	return func(c *Client) { c.confirm = cf }
}

// WithPaywallHandler installs the hook invoked when the server rejects a
// run with PAYWALL_REQUIRED.
func WithPaywallHandler(fn func()) Option {
	return func(c *Client) { c.paywall = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken swaps the bearer token (after login or logout).
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token, empty for guests.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// LastReport returns the most recent successful report, which is kept
// across failed runs so the display never blanks on an error.
func (c *Client) LastReport() *model.ResumeReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReport
}

// LastView returns the rendered form of the last successful report.
func (c *Client) LastView() *report.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastView
}

// CurrentSession returns the client's cached session state.
func (c *Client) CurrentSession() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	tier := c.lastTier
	if tier == "" {
		tier = model.AccessFreeFull
	}
	return Session{User: c.user, ActivePass: c.activePass, Tier: tier}
}

// FreeUsesRemaining returns the server-reported remaining free runs, or
// nil when unknown (pass holders, or before the first run).
func (c *Client) FreeUsesRemaining() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freeUsesRemaining
}

// RefreshSession fetches /api/me with a short timeout. Any failure,
// including timeout, degrades silently to guest: the cached session is
// cleared and the zero-value guest session returned. The token is kept
// so a later refresh can recover, except on a definitive 401.
func (c *Client) RefreshSession(ctx context.Context) Session {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return Session{Tier: model.AccessFreeFull}
	}

	ctx, cancel := context.WithTimeout(ctx, sessionRefreshTimeout)
	defer cancel()

	env, status, err := c.doJSON(ctx, http.MethodGet, "/api/me", nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || !env.OK {
		c.user = nil
		c.activePass = nil
		c.lastTier = model.AccessFreeFull
		if status == http.StatusUnauthorized {
			c.token = ""
		}
		return Session{Tier: model.AccessFreeFull}
	}

	c.user = env.User
	c.activePass = env.ActivePass
	if env.ActivePass != nil {
		c.lastTier = model.AccessPassFull
	} else {
		c.lastTier = model.AccessFreeFull
	}
	return Session{User: c.user, ActivePass: c.activePass, Tier: c.lastTier}
}

// RequestLoginCode asks the server to email a login code.
func (c *Client) RequestLoginCode(ctx context.Context, email string) error {
	env, _, err := c.doJSON(ctx, http.MethodPost, "/api/login/request-code", map[string]string{"email": email})
	if err != nil {
		return err
	}
	if !env.OK {
		return apiErrorFrom(env)
	}
	return nil
}

// VerifyLoginCode exchanges an emailed code for a bearer token and
// installs it on the client.
func (c *Client) VerifyLoginCode(ctx context.Context, email, code string) (*model.User, error) {
	body := map[string]string{"email": email, "code": code}
	env, _, err := c.doJSON(ctx, http.MethodPost, "/api/login/verify", body)
	if err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, apiErrorFrom(env)
	}

	var payload struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}

	c.mu.Lock()
	c.token = payload.Token
	c.user = payload.User
	c.activePass = env.ActivePass
	c.mu.Unlock()
	return payload.User, nil
}

// StartCheckout creates a Stripe checkout session for a pass tier and
// returns the hosted payment URL.
func (c *Client) StartCheckout(ctx context.Context, tier string) (string, error) {
	env, _, err := c.doJSON(ctx, http.MethodPost, "/api/create-checkout-session", map[string]string{"tier": tier})
	if err != nil {
		return "", err
	}
	if !env.OK {
		return "", apiErrorFrom(env)
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return "", fmt.Errorf("decoding checkout response: %w", err)
	}
	return payload.URL, nil
}

// ExportPDF renders the last successful report to PDF bytes. Only
// meaningful on a full-access report; the server enforces nothing here
// beyond the report payload being well formed.
func (c *Client) ExportPDF(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	rep := c.lastReport
	c.mu.Unlock()
	if rep == nil {
		return nil, &APIError{Code: model.ErrCodeValidation, Message: "Run a review first, then export it."}
	}

	raw, err := json.Marshal(map[string]any{"report": rep})
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/export-pdf", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var env model.Envelope
		if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr == nil && env.ErrorCode != "" {
			return nil, apiErrorFrom(env)
		}
		return nil, &APIError{Code: model.ErrCodeInternal, Message: friendlyMessage(model.ErrCodeInternal), Status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// doJSON posts (or gets) a JSON body and decodes the uniform envelope.
// The returned status is set whenever an HTTP response arrived, even on
// decode failure.
func (c *Client) doJSON(ctx context.Context, method, path string, body any) (model.Envelope, int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return model.Envelope{}, 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return model.Envelope{}, 0, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return model.Envelope{}, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return model.Envelope{}, resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return env, resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
