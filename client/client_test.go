package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clarity-api/internal/assess"
	"github.com/yourusername/clarity-api/internal/ideas"
	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/report"
)

func floatPtr(f float64) *float64 { return &f }

// fullResumeText is long and bullet-dense enough to pass the length gate.
var fullResumeText = strings.Repeat("- Shipped a measurable improvement to the platform this quarter\n", 30)

// shortResumeText trips the strict character threshold.
var shortResumeText = strings.Repeat("a", 1199)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, env model.Envelope) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(env))
}

func okFeedbackEnvelope(t *testing.T, rep model.ResumeReport, tier model.AccessTier) model.Envelope {
	t.Helper()
	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	return model.Envelope{OK: true, Data: raw, AccessTier: tier}
}

func newCountingServer(t *testing.T, fn http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		fn(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &count
}

func TestRunAnalysisEmptyInputNeverHitsNetwork(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	res, err := c.RunAnalysis(context.Background(), RunOptions{Text: "   \n\t  "})
	assert.Nil(t, res)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.ErrCodeValidation, apiErr.Code)
	assert.Equal(t, "Paste your resume so I can review it.", apiErr.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))
}

func TestRunAnalysisOverlongInputRejectedLocally(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	_, err := c.RunAnalysis(context.Background(), RunOptions{Text: strings.Repeat("x", model.MaxTextLength+1)})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.ErrCodeValidation, apiErr.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))
}

func TestRunAnalysisShortTextNeedsConfirmationWithoutConfirmer(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	res, err := c.RunAnalysis(context.Background(), RunOptions{Text: shortResumeText})
	require.NoError(t, err)
	assert.True(t, res.NeedsConfirmation)
	require.NotNil(t, res.Assessment)
	assert.Equal(t, assess.ReasonStrictCharThreshold, res.Assessment.Reason)
	assert.Equal(t, 1199, res.Assessment.CharCount)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))
}

func TestRunAnalysisReviewAnywaySubmitsExactlyOnce(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Mode           string `json:"mode"`
			Text           string `json:"text"`
			ShortConfirmed bool   `json:"short_confirmed"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "resume", req.Mode)
		assert.Equal(t, shortResumeText, req.Text)
		assert.True(t, req.ShortConfirmed)

		writeEnvelope(t, w, http.StatusOK, okFeedbackEnvelope(t, model.ResumeReport{
			Score:   floatPtr(55),
			Summary: "A fragment, but a promising one.",
			Gaps:    []string{"No dates", "No metrics"},
		}, model.AccessFreeFull))
	})

	c := New(srv.URL, WithConfirmer(ConfirmerFunc(func(a assess.Assessment) (Decision, bool) {
		assert.True(t, a.ShouldWarn)
		return DecisionReviewAnyway, false
	})))

	res, err := c.RunAnalysis(context.Background(), RunOptions{Text: shortResumeText})
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, int32(1), atomic.LoadInt32(count))
}

func TestRunAnalysisPasteFullCancelsWithoutSubmitting(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL, WithConfirmer(ConfirmerFunc(func(a assess.Assessment) (Decision, bool) {
		return DecisionPasteFull, false
	})))

	res, err := c.RunAnalysis(context.Background(), RunOptions{Text: shortResumeText})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Nil(t, res.Report)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))
}

func TestRunAnalysisSkipFutureSuppressesDialog(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ShortConfirmed bool `json:"short_confirmed"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.ShortConfirmed)
		writeEnvelope(t, w, http.StatusOK, okFeedbackEnvelope(t, model.ResumeReport{
			Summary: "Short but reviewed.",
		}, model.AccessFreeFull))
	})

	var confirmCalls int
	c := New(srv.URL, WithConfirmer(ConfirmerFunc(func(a assess.Assessment) (Decision, bool) {
		confirmCalls++
		return DecisionReviewAnyway, true
	})))

	for i := 0; i < 2; i++ {
		_, err := c.RunAnalysis(context.Background(), RunOptions{Text: shortResumeText})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, confirmCalls)
	assert.Equal(t, int32(2), atomic.LoadInt32(count))
}

func TestRunAnalysisKeepsLastReportOnFailure(t *testing.T) {
	var fail atomic.Bool
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeEnvelope(t, w, http.StatusBadGateway, model.Envelope{
				OK:        false,
				ErrorCode: model.ErrCodeUpstreamHTTP,
				Message:   "upstream returned 500",
			})
			return
		}
		writeEnvelope(t, w, http.StatusOK, okFeedbackEnvelope(t, model.ResumeReport{
			Score:   floatPtr(82),
			Summary: "Strong resume with clear ownership.",
		}, model.AccessFreeFull))
	})
	c := New(srv.URL)

	res, err := c.RunAnalysis(context.Background(), RunOptions{Text: fullResumeText})
	require.NoError(t, err)
	require.NotNil(t, res.Report)

	fail.Store(true)
	_, err = c.RunAnalysis(context.Background(), RunOptions{Text: fullResumeText})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.ErrCodeUpstreamHTTP, apiErr.Code)
	assert.Equal(t, "The reviewer hiccuped. Give it another try.", apiErr.Message)

	require.NotNil(t, c.LastReport())
	assert.Equal(t, "Strong resume with clear ownership.", c.LastReport().Summary)
}

func TestRunAnalysisPaywallTriggersHook(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusPaymentRequired, model.Envelope{
			OK:        false,
			ErrorCode: model.ErrCodePaywallRequired,
			Message:   "You've used your free reviews.",
		})
	})

	var paywallFired bool
	c := New(srv.URL, WithPaywallHandler(func() { paywallFired = true }))

	res, err := c.RunAnalysis(context.Background(), RunOptions{Text: fullResumeText})
	require.NoError(t, err)
	assert.True(t, res.PaywallRequired)
	assert.True(t, paywallFired)
}

func TestRunAnalysisFreeTierTruncatesView(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, okFeedbackEnvelope(t, model.ResumeReport{
			Score:   floatPtr(68),
			Summary: "Good base. The details need sharpening.",
			Gaps:    []string{"gap one", "gap two", "gap three", "gap four"},
		}, model.AccessFreeFull))
	})
	c := New(srv.URL)

	res, err := c.RunAnalysis(context.Background(), RunOptions{Text: fullResumeText})
	require.NoError(t, err)
	require.NotNil(t, res.View)
	assert.Len(t, res.View.Gaps, report.FreeIssuesLimit)
	assert.Equal(t, 1, res.View.HiddenGaps)
	assert.Equal(t, "Unlock 1 more issue identified", res.View.LockedTeaser)
	assert.False(t, res.View.ExportEnabled)
}

func TestRunSampleIsLocalAndFullAccess(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	res, err := c.RunAnalysis(context.Background(), RunOptions{Sample: true})
	require.NoError(t, err)
	assert.Equal(t, model.AccessPassFull, res.Tier)
	require.NotNil(t, res.View)
	assert.True(t, res.View.ExportEnabled)
	assert.Zero(t, res.View.HiddenGaps)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))
}

func TestRunAnalysisSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		writeEnvelope(t, w, http.StatusOK, okFeedbackEnvelope(t, model.ResumeReport{
			Summary: "Done.",
		}, model.AccessFreeFull))
	})
	c := New(srv.URL)

	done := make(chan error, 1)
	go func() {
		_, err := c.RunAnalysis(context.Background(), RunOptions{Text: fullResumeText})
		done <- err
	}()
	<-entered

	_, err := c.RunAnalysis(context.Background(), RunOptions{Text: fullResumeText})
	assert.ErrorIs(t, err, ErrRunInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestRefreshSessionUnauthorizedClearsToken(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusUnauthorized, model.Envelope{
			OK:        false,
			ErrorCode: model.ErrCodeValidation,
			Message:   "invalid token",
		})
	})
	c := New(srv.URL, WithToken("stale-token"))

	sess := c.RefreshSession(context.Background())
	assert.Nil(t, sess.User)
	assert.Equal(t, model.AccessFreeFull, sess.Tier)
	assert.Empty(t, c.Token())
}

func TestRefreshSessionTransportErrorDegradesToGuest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, WithToken("valid-token"))
	sess := c.RefreshSession(context.Background())
	assert.Nil(t, sess.User)
	assert.Equal(t, model.AccessFreeFull, sess.Tier)
	// Keep the token: the next refresh may succeed.
	assert.Equal(t, "valid-token", c.Token())
}

func TestRefreshSessionWithoutTokenSkipsNetwork(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	sess := c.RefreshSession(context.Background())
	assert.Equal(t, model.AccessFreeFull, sess.Tier)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))
}

func TestRunIdeasSampleCyclesLocally(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	first, err := c.RunIdeas(context.Background(), report.SampleResumeText)
	require.NoError(t, err)
	second, err := c.RunIdeas(context.Background(), report.SampleResumeText)
	require.NoError(t, err)

	assert.Equal(t, ideas.SampleVariants[0], first.Questions)
	assert.Equal(t, ideas.SampleVariants[1], second.Questions)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))
}

func TestRunIdeasServerPath(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/resume-ideas", r.URL.Path)
		raw, err := json.Marshal(model.IdeasData{
			Questions: []string{"What did the migration save?", "Who used the dashboard?"},
		})
		require.NoError(t, err)
		writeEnvelope(t, w, http.StatusOK, model.Envelope{OK: true, Data: raw})
	})
	c := New(srv.URL)

	data, err := c.RunIdeas(context.Background(), fullResumeText)
	require.NoError(t, err)
	assert.Len(t, data.Questions, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(count))
	assert.Equal(t, data, c.LastIdeas())
}

func TestRunIdeasEmptyInputNeverHitsNetwork(t *testing.T) {
	srv, count := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	_, err := c.RunIdeas(context.Background(), "  ")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.ErrCodeValidation, apiErr.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(count))
}

func TestConsumeRevealOncePerReport(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	_, err := c.RunAnalysis(context.Background(), RunOptions{Sample: true})
	require.NoError(t, err)

	assert.True(t, c.ConsumeReveal())
	assert.False(t, c.ConsumeReveal())
}

func TestClearDropsReportAndIdeasState(t *testing.T) {
	srv, _ := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	c := New(srv.URL)

	_, err := c.RunAnalysis(context.Background(), RunOptions{Sample: true})
	require.NoError(t, err)
	_, err = c.RunIdeas(context.Background(), report.SampleResumeText)
	require.NoError(t, err)

	c.Clear()
	assert.Nil(t, c.LastReport())
	assert.Nil(t, c.LastView())
	assert.Nil(t, c.LastIdeas())
	assert.False(t, c.ConsumeReveal())

	// The sample cycle starts over after a clear.
	data, err := c.RunIdeas(context.Background(), report.SampleResumeText)
	require.NoError(t, err)
	assert.Equal(t, ideas.SampleVariants[0], data.Questions)
}
