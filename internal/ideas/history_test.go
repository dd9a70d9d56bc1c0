package ideas

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureNormalizes(t *testing.T) {
	a := Signature([]string{"  What Changed?  ", "Who Cared?"})
	b := Signature([]string{"what changed?", "WHO CARED?"})
	assert.Equal(t, a, b)
	assert.Equal(t, "what changed?|who cared?", a)
}

func TestShouldRetryOnDuplicateWhileWarmingUp(t *testing.T) {
	h := NewHistory()
	batch := []string{"Q1", "Q2"}

	h.Accept(batch)
	assert.True(t, h.ShouldRetry(batch, 0))
	// The single retry is the budget: the second attempt is accepted
	// even if it collides again.
	assert.False(t, h.ShouldRetry(batch, 1))
}

func TestShouldRetryFalseForFreshBatch(t *testing.T) {
	h := NewHistory()
	h.Accept([]string{"Q1"})
	assert.False(t, h.ShouldRetry([]string{"Q2"}, 0))
}

func TestShouldRetryFalseOnceHistoryFull(t *testing.T) {
	h := NewHistory()
	for i := 0; i < MaxSignatures; i++ {
		h.Accept([]string{fmt.Sprintf("batch %d", i)})
	}
	// Duplicate of a remembered batch, but history is warmed up: accept
	// whatever comes back.
	assert.False(t, h.ShouldRetry([]string{"batch 0"}, 0))
}

func TestAcceptBoundsSignatureFIFO(t *testing.T) {
	h := NewHistory()
	for i := 0; i < MaxSignatures+3; i++ {
		h.Accept([]string{fmt.Sprintf("batch %d", i)})
	}
	assert.Equal(t, MaxSignatures, h.DistinctBatches())
}

func TestAcceptSkipsDuplicateSignatures(t *testing.T) {
	h := NewHistory()
	h.Accept([]string{"Q1"})
	h.Accept([]string{"Q1"})
	assert.Equal(t, 1, h.DistinctBatches())
}

func TestRecentQuestionsNewestFirstCapped(t *testing.T) {
	h := NewHistory()
	for i := 1; i <= 8; i++ {
		h.Accept([]string{fmt.Sprintf("question %d", i)})
	}
	recent := h.RecentQuestions()
	assert.Len(t, recent, MaxHintQuestions)
	assert.Equal(t, "question 8", recent[0])
	assert.Equal(t, "question 3", recent[len(recent)-1])
}

func TestDiversityHintEmptyWhenNoHistory(t *testing.T) {
	h := NewHistory()
	assert.Empty(t, h.DiversityHint())

	h.Accept([]string{"What changed?"})
	hint := h.DiversityHint()
	assert.Contains(t, hint, "What changed?")
	assert.Contains(t, hint, "Avoid repeating")
}

func TestResetClearsEverything(t *testing.T) {
	h := NewHistory()
	h.Accept([]string{"Q1", "Q2"})
	h.Reset()
	assert.Equal(t, 0, h.DistinctBatches())
	assert.Empty(t, h.RecentQuestions())
	assert.Empty(t, h.DiversityHint())
}

func TestSampleBatchRoundRobin(t *testing.T) {
	assert.Equal(t, SampleVariants[0], SampleBatch(0))
	assert.Equal(t, SampleVariants[1], SampleBatch(1))
	assert.Equal(t, SampleVariants[0], SampleBatch(len(SampleVariants)))
	assert.Equal(t, SampleVariants[0], SampleBatch(-3))
}
