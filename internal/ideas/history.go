// Package ideas tracks previously generated "missing wins" question
// batches so regeneration can be biased away from repeats.
package ideas

import (
	"strings"
	"sync"
)

const (
	// MaxSignatures bounds the FIFO of remembered batch signatures.
	MaxSignatures = 4
	// MaxAttempts caps total generation attempts per request: one
	// regeneration when a batch collides with recent history, then
	// accept whatever comes back. The loop must terminate even if the
	// generator always returns the same content.
	MaxAttempts = 2
	// MaxHintQuestions limits how many recently seen questions are
	// echoed back to the generator as a diversity hint.
	MaxHintQuestions = 6
)

// History is a bounded record of question batches already shown. It only
// biases regeneration; losing it is harmless.
type History struct {
	mu         sync.Mutex
	signatures []string
	seen       []string
	seenSet    map[string]bool
}

func NewHistory() *History {
	return &History{seenSet: make(map[string]bool)}
}

// Signature normalizes a question batch into a comparable key:
// lower-cased, trimmed, pipe-joined.
func Signature(questions []string) string {
	parts := make([]string, 0, len(questions))
	for _, q := range questions {
		parts = append(parts, strings.ToLower(strings.TrimSpace(q)))
	}
	return strings.Join(parts, "|")
}

// ShouldRetry reports whether a freshly generated batch should be
// regenerated: the batch duplicates one of the recent signatures AND the
// history is still warming up (fewer than MaxSignatures distinct batches
// seen), AND the attempt budget isn't exhausted. attempt is zero-based.
func (h *History) ShouldRetry(questions []string, attempt int) bool {
	if attempt+1 >= MaxAttempts {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.signatures) >= MaxSignatures {
		return false
	}
	sig := Signature(questions)
	for _, s := range h.signatures {
		if s == sig {
			return true
		}
	}
	return false
}

// Accept records a batch: its signature joins the FIFO (dropping the
// oldest past MaxSignatures, skipping exact duplicates) and each
// question is remembered for future diversity hints.
func (h *History) Accept(questions []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sig := Signature(questions)
	duplicate := false
	for _, s := range h.signatures {
		if s == sig {
			duplicate = true
			break
		}
	}
	if !duplicate {
		h.signatures = append(h.signatures, sig)
		if len(h.signatures) > MaxSignatures {
			h.signatures = h.signatures[1:]
		}
	}

	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" || h.seenSet[q] {
			continue
		}
		h.seenSet[q] = true
		h.seen = append(h.seen, q)
	}
}

// RecentQuestions returns up to MaxHintQuestions most recently seen
// question strings, newest first, for the diversity hint.
func (h *History) RecentQuestions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.seen)
	limit := MaxHintQuestions
	if n < limit {
		limit = n
	}
	out := make([]string, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.seen[i])
	}
	return out
}

// DistinctBatches returns how many distinct signatures have been seen.
func (h *History) DistinctBatches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.signatures)
}

// Reset drops all history. Called when the resume text changes or the
// input is cleared.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.signatures = nil
	h.seen = nil
	h.seenSet = make(map[string]bool)
}

// DiversityHint renders the avoid-these-repeats instruction appended to
// the generation prompt. Empty when nothing has been seen yet.
func (h *History) DiversityHint() string {
	recent := h.RecentQuestions()
	if len(recent) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Avoid repeating these recently suggested questions:\n")
	for _, q := range recent {
		sb.WriteString("- ")
		sb.WriteString(q)
		sb.WriteString("\n")
	}
	return sb.String()
}

// SampleVariants are the curated question sets cycled round-robin for
// the canned sample resume. Already diverse, so never deduplicated.
var SampleVariants = [][]string{
	{
		"What did the 28% infrastructure saving translate to in absolute dollars per year?",
		"Which enterprise deal did the audit log feature actually unblock, and how large was it?",
		"How many incidents per quarter did the runbook rewrite prevent?",
	},
	{
		"Who consumed the 1.2B daily flag evaluations, and what shipped faster because of them?",
		"What was the revenue exposure during the Postgres upgrade window you kept at zero downtime?",
		"Which of your mentees' promotions can you tie to a project you delegated?",
	},
	{
		"What decision did the 12-minute invoice latency enable that 4 hours blocked?",
		"How much engineer time per week did the CI speedup return to the team?",
		"What would have broken first if the ingestion fleet hadn't been right-sized?",
	},
	{
		"What part of the billing migration did you personally design versus inherit?",
		"Which on-call metric convinced leadership the payments tier was healthy?",
		"What did closing the enterprise sales blocker mean for that quarter's number?",
	},
}

// SampleBatch returns the variant for a refresh counter, cycling
// deterministically.
func SampleBatch(refreshCount int) []string {
	if refreshCount < 0 {
		refreshCount = 0
	}
	return SampleVariants[refreshCount%len(SampleVariants)]
}
