package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clarity-api/internal/ideas"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/report"
	"github.com/yourusername/clarity-api/internal/service"
)

// stubIdeasGen returns queued batches in order, repeating the last one
// when the queue runs dry.
type stubIdeasGen struct {
	batches [][]string
	calls   int
	err     error
}

func (s *stubIdeasGen) GenerateIdeas(_ context.Context, _, _ string) (*model.IdeasData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.batches) {
		idx = len(s.batches) - 1
	}
	return &model.IdeasData{Questions: s.batches[idx]}, nil
}

func ideasRouter(gen IdeasGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/resume-ideas", NewIdeasHandler(gen).Run)
	return r
}

func postIdeas(t *testing.T, r *gin.Engine, text string) (*httptest.ResponseRecorder, model.Envelope) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"text": text})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/resume-ideas", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestIdeasFreshBatchNeedsNoRetry(t *testing.T) {
	gen := &stubIdeasGen{batches: [][]string{{"What did the migration save?"}}}
	r := ideasRouter(gen)

	w, env := postIdeas(t, r, "my resume text")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.OK)
	assert.Equal(t, 1, gen.calls)
}

func TestIdeasDuplicateBatchRetriesExactlyOnce(t *testing.T) {
	batch := []string{"What did the migration save?", "Who used the dashboard?"}
	gen := &stubIdeasGen{batches: [][]string{batch}}
	r := ideasRouter(gen)

	// First request seeds the history.
	_, env := postIdeas(t, r, "my resume text")
	require.True(t, env.OK)
	require.Equal(t, 1, gen.calls)

	// Second request collides, retries once, then accepts the still
	// identical batch rather than looping.
	_, env = postIdeas(t, r, "my resume text")
	assert.True(t, env.OK)
	assert.Equal(t, 3, gen.calls)

	var data model.IdeasData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, batch, data.Questions)
}

func TestIdeasTextChangeResetsHistory(t *testing.T) {
	batch := []string{"What did the migration save?"}
	gen := &stubIdeasGen{batches: [][]string{batch}}
	r := ideasRouter(gen)

	_, _ = postIdeas(t, r, "resume version one")
	require.Equal(t, 1, gen.calls)

	// Same batch for different text: no collision because the history
	// was reset.
	_, env := postIdeas(t, r, "resume version two")
	assert.True(t, env.OK)
	assert.Equal(t, 2, gen.calls)
}

func TestIdeasSampleCyclesWithoutGenerator(t *testing.T) {
	gen := &stubIdeasGen{batches: [][]string{{"never used"}}}
	r := ideasRouter(gen)

	_, first := postIdeas(t, r, report.SampleResumeText)
	_, second := postIdeas(t, r, report.SampleResumeText)

	var a, b model.IdeasData
	require.NoError(t, json.Unmarshal(first.Data, &a))
	require.NoError(t, json.Unmarshal(second.Data, &b))

	assert.Equal(t, ideas.SampleVariants[0], a.Questions)
	assert.Equal(t, ideas.SampleVariants[1], b.Questions)
	assert.Zero(t, gen.calls)
}

func TestIdeasValidation(t *testing.T) {
	gen := &stubIdeasGen{batches: [][]string{{"never used"}}}
	r := ideasRouter(gen)

	w, env := postIdeas(t, r, "   ")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.ErrCodeValidation, env.ErrorCode)

	w, env = postIdeas(t, r, strings.Repeat("x", model.MaxTextLength+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.ErrCodeValidation, env.ErrorCode)
	assert.Zero(t, gen.calls)
}

func TestIdeasUpstreamErrorMapsToCode(t *testing.T) {
	gen := &stubIdeasGen{err: service.NewUpstreamError(model.ErrCodeUpstreamTimeout, errors.New("deadline exceeded"))}
	r := ideasRouter(gen)

	w, env := postIdeas(t, r, "my resume text")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, env.OK)
	assert.Equal(t, model.ErrCodeUpstreamTimeout, env.ErrorCode)
}
