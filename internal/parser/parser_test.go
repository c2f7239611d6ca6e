package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resumecoach/internal/session"
)

const targetedAnalysis = `ATS Score: 87

Solid backend resume with clear ownership of services.

Weaknesses:
1. Weak verbs in the Acme role.
2. No metrics for the migration project.
3. Date gap in 2021.

Total Weaknesses: 3`

func TestParseAnalysisTargeted(t *testing.T) {
	got := ParseAnalysis(targetedAnalysis, session.ModeTargeted)

	assert.Equal(t, 87, got.ATSScore)
	assert.True(t, got.HasScore)
	assert.Equal(t, 3, got.TotalWeaknesses)
	assert.Equal(t, "Solid backend resume with clear ownership of services.\n\n"+
		"Weaknesses:\n1. Weak verbs in the Acme role.\n2. No metrics for the migration project.\n3. Date gap in 2021.",
		got.Summary)
	assert.NotContains(t, got.Summary, "ATS Score")
	assert.NotContains(t, got.Summary, "Total Weaknesses")
}

func TestParseAnalysisGeneralIgnoresScore(t *testing.T) {
	got := ParseAnalysis(targetedAnalysis, session.ModeGeneral)

	assert.Zero(t, got.ATSScore)
	assert.False(t, got.HasScore)
	assert.Equal(t, 3, got.TotalWeaknesses)
}

func TestParseAnalysisDefaults(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		expectedTotal int
		expectedScore int
		summary       string
	}{
		{
			name:          "no count line",
			raw:           "Looks fine overall.",
			expectedTotal: 1,
			summary:       "Looks fine overall.",
		},
		{
			name:          "zero weaknesses clamped",
			raw:           "Great resume.\nTotal Weaknesses: 0",
			expectedTotal: 1,
			summary:       "Great resume.",
		},
		{
			name:          "case insensitive labels",
			raw:           "ats score: 140\ntotal weaknesses: 4\nSummary text.",
			expectedTotal: 4,
			expectedScore: 100,
			summary:       "Summary text.",
		},
		{
			name:          "empty output",
			raw:           "",
			expectedTotal: 1,
			summary:       SummaryFallback,
		},
		{
			name:          "unparseable count",
			raw:           "Total Weaknesses: many\nText.",
			expectedTotal: 1,
			summary:       "Total Weaknesses: many\nText.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnalysis(tt.raw, session.ModeTargeted)
			assert.Equal(t, tt.expectedTotal, got.TotalWeaknesses)
			assert.Equal(t, tt.expectedScore, got.ATSScore)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}

func TestParseAnalysisKeepsProseAroundLabels(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		score   int
		total   int
		summary string
	}{
		{
			name:    "inline score",
			raw:     "Your ATS Score: 72 reflects a strong match for backend roles.\nWeaknesses:\n1. x\nTotal Weaknesses: 1",
			score:   72,
			total:   1,
			summary: "Your reflects a strong match for backend roles.\n\nWeaknesses:\n1. x",
		},
		{
			name:    "decorated score line",
			raw:     "**ATS Score: 64/100**\nClear structure.\nWeaknesses:\n1. x\n2. y\n- Total Weaknesses: 2 -",
			score:   64,
			total:   2,
			summary: "Clear structure.\n\nWeaknesses:\n1. x\n2. y",
		},
		{
			name:    "inline count",
			raw:     "Good start, Total Weaknesses: 3 to address below.\nWeaknesses:\n1. a",
			total:   3,
			summary: "Good start, to address below.\n\nWeaknesses:\n1. a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnalysis(tt.raw, session.ModeTargeted)
			assert.Equal(t, tt.score, got.ATSScore)
			assert.Equal(t, tt.total, got.TotalWeaknesses)
			assert.Equal(t, tt.summary, got.Summary)
		})
	}
}

func TestParseAnalysisSummaryFallback(t *testing.T) {
	for _, raw := range []string{
		"Weaknesses:\n1. Vague bullet points.\nTotal Weaknesses: 1",
		"None\nWeaknesses:\n1. Vague bullet points.\nTotal Weaknesses: 1",
		"  none  \n\nWeaknesses:\n1. Vague bullet points.",
	} {
		got := ParseAnalysis(raw, session.ModeGeneral)
		assert.Equal(t, SummaryFallback+"\n\nWeaknesses:\n1. Vague bullet points.", got.Summary)
	}
}

func TestParseAnalysisHeaderMustStartLine(t *testing.T) {
	raw := "Key weaknesses: none of note besides formatting.\nTotal Weaknesses: 2"
	got := ParseAnalysis(raw, session.ModeGeneral)

	assert.Equal(t, "Key weaknesses: none of note besides formatting.", got.Summary)
	assert.Equal(t, 2, got.TotalWeaknesses)

	decorated := ParseAnalysis("Summary.\n**Weaknesses:**\n1. One.", session.ModeGeneral)
	assert.Equal(t, "Summary.\n\n**Weaknesses:**\n1. One.", decorated.Summary)
}

func TestParseChatTurn(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		display  string
		resolved bool
	}{
		{
			name:     "marker at line end",
			raw:      "Great job! [WEAKNESS_RESOLVED]\nNext step...",
			display:  "Great job!\nNext step...",
			resolved: true,
		},
		{
			name:     "marker on its own line",
			raw:      "Great, that section looks solid,\n[WEAKNESS_RESOLVED]\n\nNow the next one.",
			display:  "Great, that section looks solid,\n\nNow the next one.",
			resolved: true,
		},
		{
			name:     "repeated markers",
			raw:      "[WEAKNESS_RESOLVED] Done [WEAKNESS_RESOLVED] here.\n[WEAKNESS_RESOLVED]",
			display:  "Done here.",
			resolved: true,
		},
		{
			name:    "no marker",
			raw:     "  Tell me more about the project.\n",
			display: "Tell me more about the project.",
		},
		{
			name:    "other marker ignored",
			raw:     "All done [BUILD_COMPLETE]",
			display: "All done [BUILD_COMPLETE]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseChatTurn(tt.raw)
			assert.Equal(t, tt.display, got.Display)
			assert.Equal(t, tt.resolved, got.Resolved)
			assert.False(t, got.Complete)
		})
	}
}

func TestParseInterviewTurn(t *testing.T) {
	got := ParseInterviewTurn("Thanks, that covers education.\r\n[BUILD_COMPLETE]\r\n")
	assert.True(t, got.Complete)
	assert.False(t, got.Resolved)
	assert.Equal(t, "Thanks, that covers education.", got.Display)

	got = ParseInterviewTurn("What is your email address?")
	assert.False(t, got.Complete)
	assert.Equal(t, "What is your email address?", got.Display)
}
