package report

import (
	"fmt"
	"strings"

	"github.com/yourusername/clarity-api/internal/model"
)

// Free-tier truncation limits. Product-tunable; no derivation.
const (
	FreeIssuesLimit   = 3
	FreeRewritesLimit = 2
	TopFixesLimit     = 3
)

// Rewrite bucket names. Labels are clustered by case-insensitive
// substring match; anything unmatched lands in the Focus & Craft bucket.
const (
	BucketClarity = "Clarity"
	BucketImpact  = "Impact"
	BucketFocus   = "Focus & Craft"
)

var clarityLabels = []string{"clarity", "concise", "conciseness", "brevity", "phrasing"}
var impactLabels = []string{"impact", "scope", "ownership"}

// RewriteBuckets holds clustered rewrites in deterministic order.
type RewriteBuckets struct {
	Clarity []model.Rewrite `json:"clarity"`
	Impact  []model.Rewrite `json:"impact"`
	Focus   []model.Rewrite `json:"focus"`
}

// Total returns the number of rewrites across all buckets.
func (b RewriteBuckets) Total() int {
	return len(b.Clarity) + len(b.Impact) + len(b.Focus)
}

// Options selects rendering behavior per view.
type Options struct {
	IsSample   bool
	AccessTier model.AccessTier
}

// View is the fully derived, tier-truncated display form of a report.
// Rendering the same report with the same options always yields the
// same View.
type View struct {
	Score          int            `json:"score"`
	HasScore       bool           `json:"hasScore"`
	ScoreLabel     string         `json:"scoreLabel"`
	CommentShort   string         `json:"commentShort"`
	CommentLong    string         `json:"commentLong"`
	Band           ScoreBand      `json:"band"`
	Verdict        string         `json:"verdict"`
	TopFixes       []string       `json:"topFixes"`
	Strengths      []string       `json:"strengths"`
	Gaps           []string       `json:"gaps"`
	HiddenGaps     int            `json:"hiddenGaps"`
	Rewrites       RewriteBuckets `json:"rewrites"`
	HiddenRewrites int            `json:"hiddenRewrites"`
	LockedTeaser   string         `json:"lockedTeaser,omitempty"`
	NextSteps      []string       `json:"nextSteps"`
	MissingWins    []string       `json:"missingWins"`
	ExportEnabled  bool           `json:"exportEnabled"`
}

// Render derives the display view for a report under the given access
// tier. The sample report is always rendered with full access.
func Render(r *model.ResumeReport, opts Options) View {
	full := opts.IsSample || opts.AccessTier == model.AccessPassFull

	v := View{
		Verdict:     Verdict(r.Summary),
		TopFixes:    TopFixes(r.NextSteps, r.Gaps, r.Rewrites),
		Strengths:   r.Strengths,
		NextSteps:   r.NextSteps,
		MissingWins: r.MissingWins,
	}

	v.Score, v.HasScore = ClampScore(r.Score)
	if v.HasScore {
		meta := GetScoreMeta(v.Score)
		v.ScoreLabel = firstNonEmpty(r.ScoreLabel, meta.Label)
		v.CommentShort = firstNonEmpty(r.ScoreCommentShort, meta.CommentShort)
		v.CommentLong = firstNonEmpty(r.ScoreCommentLong, meta.CommentLong)
		v.Band = GetScoreBand(v.Score)
	}

	buckets := ClusterRewrites(r.Rewrites)

	if full {
		v.Gaps = r.Gaps
		v.Rewrites = buckets
		v.ExportEnabled = true
		return v
	}

	v.Gaps = capStrings(r.Gaps, FreeIssuesLimit)
	v.HiddenGaps = len(r.Gaps) - len(v.Gaps)
	v.Rewrites, v.HiddenRewrites = truncateBuckets(buckets, FreeRewritesLimit)
	if v.HiddenGaps > 0 {
		v.LockedTeaser = fmt.Sprintf("Unlock %d more %s identified", v.HiddenGaps, plural(v.HiddenGaps, "issue", "issues"))
	}
	return v
}

// Verdict extracts the first one or two sentences of the summary. The
// second sentence is kept only while the verdict stays short enough to
// read as a headline.
func Verdict(summary string) string {
	sentences := splitSentences(summary)
	if len(sentences) == 0 {
		return ""
	}
	verdict := sentences[0]
	if len(sentences) > 1 && len(verdict)+len(sentences[1])+1 <= 220 {
		verdict += " " + sentences[1]
	}
	return verdict
}

// TopFixes builds a prioritized fix list: next steps first, padded from
// gaps, then rewrite enhancement notes. Case-insensitive dedup,
// order-preserving, capped at TopFixesLimit.
func TopFixes(nextSteps, gaps []string, rewrites []model.Rewrite) []string {
	candidates := make([]string, 0, len(nextSteps)+len(gaps)+len(rewrites))
	candidates = append(candidates, nextSteps...)
	candidates = append(candidates, gaps...)
	for _, rw := range rewrites {
		if rw.EnhancementNote != "" {
			candidates = append(candidates, rw.EnhancementNote)
		}
	}

	seen := make(map[string]bool, len(candidates))
	fixes := make([]string, 0, TopFixesLimit)
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		fixes = append(fixes, c)
		if len(fixes) == TopFixesLimit {
			break
		}
	}
	return fixes
}

// ClusterRewrites assigns each rewrite to a bucket by case-insensitive
// substring match on its label. Assignment depends only on the input
// order, so re-clustering the same slice is deterministic.
func ClusterRewrites(rewrites []model.Rewrite) RewriteBuckets {
	var b RewriteBuckets
	for _, rw := range rewrites {
		label := strings.ToLower(rw.Label)
		switch {
		case containsAny(label, clarityLabels):
			b.Clarity = append(b.Clarity, rw)
		case containsAny(label, impactLabels):
			b.Impact = append(b.Impact, rw)
		default:
			b.Focus = append(b.Focus, rw)
		}
	}
	return b
}

// truncateBuckets caps the total rewrites shown on the free tier:
// half-ceiling of the budget goes to Clarity, the remainder to Impact,
// and the catch-all bucket is fully locked. Unused Clarity budget spills
// into Impact so the full cap is used when possible.
func truncateBuckets(b RewriteBuckets, limit int) (RewriteBuckets, int) {
	total := b.Total()
	if total <= limit {
		return b, 0
	}

	clarityBudget := (limit + 1) / 2
	if clarityBudget > len(b.Clarity) {
		clarityBudget = len(b.Clarity)
	}
	impactBudget := limit - clarityBudget
	if impactBudget > len(b.Impact) {
		impactBudget = len(b.Impact)
	}

	out := RewriteBuckets{
		Clarity: b.Clarity[:clarityBudget],
		Impact:  b.Impact[:impactBudget],
	}
	return out, total - out.Total()
}

func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var sentences []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r == '.' || r == '!' || r == '?' {
			// Sentence ends at a terminator followed by space or EOL.
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' {
				s := strings.TrimSpace(string(runes[start : i+1]))
				if s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func capStrings(items []string, limit int) []string {
	if len(items) <= limit {
		return items
	}
	return items[:limit]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
