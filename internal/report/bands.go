package report

import "math"

// ScoreMeta is the fallback narrative for a score bucket, used when the
// upstream model didn't supply its own label/comments.
type ScoreMeta struct {
	Min          int    `json:"min"`
	Max          int    `json:"max"`
	Label        string `json:"label"`
	CommentShort string `json:"commentShort"`
	CommentLong  string `json:"commentLong"`
}

// scoreMetaTable covers [0,100] with no holes. Lookup clamps, so it is
// total over all inputs.
var scoreMetaTable = []ScoreMeta{
	{0, 49, "Needs a rebuild", "This draft is working against you.",
		"Most bullets read as duties, not outcomes. Rebuild around specific results before sending this anywhere."},
	{50, 59, "Rough draft", "The bones are there, the evidence isn't.",
		"Recruiters will skim past generic claims. Anchor each role with two or three concrete, measurable wins."},
	{60, 69, "Getting there", "Readable, but it undersells you.",
		"The structure works. Now swap vague verbs for outcomes and trim anything a hiring manager can't act on."},
	{70, 77, "Solid base", "A decent resume that blends in.",
		"Nothing here would get you rejected, but nothing demands a callback either. Sharpen your top third."},
	{78, 84, "Strong", "Clearly written with real evidence.",
		"You're ahead of most applicants. A few bullets still bury the result behind the activity."},
	{85, 91, "Very strong", "This resume makes the case for you.",
		"Impact is visible and scannable. Polish the remaining soft spots and tailor per application."},
	{92, 96, "Excellent", "Among the clearest resumes we see.",
		"Specific, quantified, easy to scan. Only marginal wording gains left."},
	{97, 100, "Exceptional", "Hard to improve on.",
		"Keep it current and resist the urge to add filler."},
}

// ScoreBand is the presentational 5-band scale over [60,100] shown next
// to the score dial.
type ScoreBand struct {
	ID          string `json:"id"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var scoreBandTable = []ScoreBand{
	{"developing", 60, 69, "Developing", "Core content present, clarity still costing interviews."},
	{"competent", 70, 77, "Competent", "Reads fine, rarely stands out."},
	{"strong", 78, 84, "Strong", "Clear evidence of impact."},
	{"standout", 85, 92, "Standout", "Better than most of the pile."},
	{"elite", 93, 100, "Elite", "Top-of-stack clarity."},
}

// ClampScore rounds and clamps a raw score into [0,100]. Non-numeric
// (nil/NaN/Inf) values are treated as absent.
func ClampScore(raw *float64) (int, bool) {
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) {
		return 0, false
	}
	s := int(math.Round(*raw))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return s, true
}

// GetScoreMeta returns the fallback narrative bucket for a score.
// Out-of-range inputs clamp to the edge buckets; the lookup never fails.
func GetScoreMeta(score int) ScoreMeta {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	for _, m := range scoreMetaTable {
		if score >= m.Min && score <= m.Max {
			return m
		}
	}
	return scoreMetaTable[len(scoreMetaTable)-1]
}

// GetScoreBand returns the presentational band for a score, clamping
// into [60,100].
func GetScoreBand(score int) ScoreBand {
	if score < 60 {
		score = 60
	}
	if score > 100 {
		score = 100
	}
	for _, b := range scoreBandTable {
		if score >= b.Min && score <= b.Max {
			return b
		}
	}
	return scoreBandTable[len(scoreBandTable)-1]
}
