package assess

import (
	"regexp"
	"strings"
)

// Product-tunable thresholds. These have no derivation beyond tuning
// against real resumes; keep them as named constants.
const (
	// MinComfortableChars is the floor below which a resume is almost
	// certainly a fragment and the user should confirm before running.
	MinComfortableChars = 1200
	// BorderlineChars marks the band where low bullet density still
	// suggests a partial paste.
	BorderlineChars = 2000
	// MinBullets is the bullet count expected of a full resume.
	MinBullets = 8
)

// Assessment reasons, in evaluation order.
const (
	ReasonStrictCharThreshold  = "strict_char_threshold"
	ReasonBorderlineLowBullets = "borderline_low_bullets"
	ReasonHintLowBullets       = "hint_low_bullets"
	ReasonOK                   = "ok"
)

// Assessment is the flat result of a length/density check. No side effects.
type Assessment struct {
	CharCount   int    `json:"charCount"`
	BulletCount int    `json:"bulletCount"`
	ShouldWarn  bool   `json:"shouldWarn"`
	ShouldHint  bool   `json:"shouldHint"`
	Reason      string `json:"reason"`
}

var bulletMarker = regexp.MustCompile(`^\s*([-*•‣▪●·]|\d+[.)])\s+\S`)

// Assess classifies trimmed resume text into warn/hint/ok based on
// character count and bullet density. Policy, evaluated in order:
//
//	charCount < 1200                     -> warn, strict_char_threshold
//	charCount < 2000 && bulletCount < 8  -> warn, borderline_low_bullets
//	bulletCount < 8                      -> hint, hint_low_bullets
//	otherwise                            -> ok
func Assess(text string) Assessment {
	trimmed := strings.TrimSpace(text)
	a := Assessment{
		CharCount:   len([]rune(trimmed)),
		BulletCount: countBullets(trimmed),
	}

	switch {
	case a.CharCount < MinComfortableChars:
		a.ShouldWarn = true
		a.Reason = ReasonStrictCharThreshold
	case a.CharCount < BorderlineChars && a.BulletCount < MinBullets:
		a.ShouldWarn = true
		a.Reason = ReasonBorderlineLowBullets
	case a.BulletCount < MinBullets:
		a.ShouldHint = true
		a.Reason = ReasonHintLowBullets
	default:
		a.Reason = ReasonOK
	}
	return a
}

// countBullets counts lines that look like bullet points. When no marker
// matches at all, short indented lines are treated as a weaker
// pseudo-bullet signal at half weight.
func countBullets(text string) int {
	lines := strings.Split(text, "\n")

	marked := 0
	for _, line := range lines {
		if bulletMarker.MatchString(line) {
			marked++
		}
	}
	if marked > 0 {
		return marked
	}

	indented := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if line != trimmed && len([]rune(trimmed)) <= 120 {
			indented++
		}
	}
	return indented / 2
}
