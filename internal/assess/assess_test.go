package assess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// bulletLines builds n bullet lines padded to roughly chars total.
func bulletLines(n, chars int) string {
	var sb strings.Builder
	per := chars / n
	for i := 0; i < n; i++ {
		sb.WriteString("- ")
		sb.WriteString(strings.Repeat("x", per))
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestAssessShortTextWarns(t *testing.T) {
	a := Assess("Software engineer with 5 years of experience.")
	assert.True(t, a.ShouldWarn)
	assert.False(t, a.ShouldHint)
	assert.Equal(t, ReasonStrictCharThreshold, a.Reason)
}

func TestAssessExactlyBelowThresholdWarns(t *testing.T) {
	a := Assess(strings.Repeat("a", MinComfortableChars-1))
	assert.True(t, a.ShouldWarn)
	assert.Equal(t, ReasonStrictCharThreshold, a.Reason)
}

func TestAssessBorderlineLowBulletsWarns(t *testing.T) {
	// 1500 chars, 3 bullets: inside the borderline band with sparse bullets.
	a := Assess(bulletLines(3, 1500))
	assert.GreaterOrEqual(t, a.CharCount, MinComfortableChars)
	assert.Less(t, a.CharCount, BorderlineChars)
	assert.True(t, a.ShouldWarn)
	assert.Equal(t, ReasonBorderlineLowBullets, a.Reason)
}

func TestAssessBorderlineWithEnoughBulletsOK(t *testing.T) {
	a := Assess(bulletLines(10, 1500))
	assert.False(t, a.ShouldWarn)
	assert.False(t, a.ShouldHint)
	assert.Equal(t, ReasonOK, a.Reason)
}

func TestAssessLongTextLowBulletsHints(t *testing.T) {
	a := Assess(bulletLines(4, 2600))
	assert.False(t, a.ShouldWarn)
	assert.True(t, a.ShouldHint)
	assert.Equal(t, ReasonHintLowBullets, a.Reason)
}

func TestAssessLongDenseTextOK(t *testing.T) {
	a := Assess(bulletLines(12, 2600))
	assert.Equal(t, ReasonOK, a.Reason)
	assert.False(t, a.ShouldWarn)
	assert.False(t, a.ShouldHint)
}

func TestAssessTrimsBeforeCounting(t *testing.T) {
	padded := "\n\n   " + strings.Repeat("a", 100) + "   \n\n"
	a := Assess(padded)
	assert.Equal(t, 100, a.CharCount)
}

func TestCountBulletsMarkers(t *testing.T) {
	text := "- built a thing\n* shipped a thing\n• measured a thing\n1. led a thing\nplain line"
	assert.Equal(t, 4, countBullets(text))
}

func TestCountBulletsIndentedFallback(t *testing.T) {
	// No markers anywhere: short indented lines count at half weight.
	text := "Experience\n  built the pipeline\n  shipped the rollout\n  cut costs by half\n  mentored two juniors"
	assert.Equal(t, 2, countBullets(text))
}

func TestCountBulletsMarkersSuppressFallback(t *testing.T) {
	text := "- real bullet\n  indented line one\n  indented line two"
	assert.Equal(t, 1, countBullets(text))
}
