package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourusername/clarity-api/internal/ideas"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/report"
)

// RunIdeas fetches a missing-wins question batch for the given resume
// text. The sample resume cycles through curated variants locally and
// never touches the network. Like RunAnalysis, only one fetch may be
// outstanding at a time; the server handles dedup against the caller's
// recent history.
func (c *Client) RunIdeas(ctx context.Context, text string) (*model.IdeasData, error) {
	c.mu.Lock()
	if c.ideasInFlight {
		c.mu.Unlock()
		return nil, ErrRunInFlight
	}
	c.ideasInFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.ideasInFlight = false
		c.mu.Unlock()
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &APIError{
			Code:    model.ErrCodeValidation,
			Message: "Paste your resume so I can suggest questions.",
		}
	}

	if text == report.SampleResumeText {
		c.mu.Lock()
		if c.ideasText != text {
			c.sampleRefresh = 0
		}
		c.ideasText = text
		batch := ideas.SampleBatch(c.sampleRefresh)
		c.sampleRefresh++
		data := &model.IdeasData{
			Questions: batch,
			Notes:     "These probe the outcomes the sample resume implies but never states.",
			HowToUse:  "Answer each one in a sentence, then fold the best answers back into your bullets.",
		}
		c.lastIdeas = data
		c.mu.Unlock()
		return data, nil
	}

	env, status, err := c.doJSON(ctx, "POST", "/api/resume-ideas", map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("ideas fetch failed: %w", err)
	}
	if !env.OK {
		e := apiErrorFrom(env)
		e.Status = status
		return nil, e
	}

	var data model.IdeasData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding ideas: %w", err)
	}

	c.mu.Lock()
	c.ideasText = text
	c.lastIdeas = &data
	c.mu.Unlock()
	return &data, nil
}

// LastIdeas returns the most recent question batch, kept across failed
// refreshes.
func (c *Client) LastIdeas() *model.IdeasData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastIdeas
}
