package prompts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumecoach/internal/config"
	"resumecoach/internal/session"
)

func fixedNow() time.Time {
	return time.Date(2025, time.March, 7, 9, 30, 0, 0, time.UTC)
}

func newTestComposer(t *testing.T, overrides map[string]string) *Composer {
	t.Helper()
	c, err := New(Options{Now: fixedNow, Overrides: overrides})
	require.NoError(t, err)
	return c
}

var history = []session.Message{
	{Role: session.RoleAssistant, Content: "Hi! Let's fix your Acme bullet points. What did the migration achieve?"},
	{Role: session.RoleUser, Content: "Cut latency by 40%."},
}

func TestInitialAnalysisModes(t *testing.T) {
	c := newTestComposer(t, nil)

	general := c.InitialAnalysis("RESUME TEXT", "")
	assert.Contains(t, general, "**Today's date is March 07, 2025.**")
	assert.Contains(t, general, "RESUME TEXT")
	assert.Contains(t, general, "Weaknesses:\n1. [First weakness]")
	assert.Contains(t, general, "Total Weaknesses: [Count]")
	assert.Contains(t, general, "Weak action verbs.")
	assert.NotContains(t, general, "ATS Score")
	assert.NotContains(t, general, "Job Description")

	assert.Equal(t, general, c.InitialAnalysis("RESUME TEXT", session.LegacyNoJobDescription))

	targeted := c.InitialAnalysis("RESUME TEXT", "Senior Go engineer")
	assert.Contains(t, targeted, "ATS Score: [Score out of 100]\n\n[Your one-paragraph summary here...]")
	assert.Contains(t, targeted, "**Job Description:**\nSenior Go engineer")
	assert.Contains(t, targeted, "including missing keywords")
}

func TestChatStart(t *testing.T) {
	c := newTestComposer(t, nil)
	prompt := c.ChatStart("Weaknesses:\n1. Weak verbs.")

	assert.Contains(t, prompt, "---ANALYSIS---\nWeaknesses:\n1. Weak verbs.\n---")
	assert.Contains(t, prompt, "state the *first* weakness")
}

func TestChatTurnModes(t *testing.T) {
	c := newTestComposer(t, nil)

	general := c.ChatTurn("RESUME", "ANALYSIS", "", history, "Cut latency by 40%.")
	assert.Contains(t, general, `Respond** to the user's last message: "Cut latency by 40%."`)
	assert.Contains(t, general, "assistant: Hi! Let's fix your Acme bullet points.")
	assert.Contains(t, general, "user: Cut latency by 40%.")
	assert.Contains(t, general, "[WEAKNESS_RESOLVED]")
	assert.Contains(t, general, "Ask probing questions")
	assert.NotContains(t, general, "Job Description")

	targeted := c.ChatTurn("RESUME", "ANALYSIS", "Kubernetes, gRPC", history, "Cut latency by 40%.")
	assert.Contains(t, targeted, "**The Job Description (Target):**\nKubernetes, gRPC")
	assert.Contains(t, targeted, "2. **Tailor the resume**")
	assert.Contains(t, targeted, "use keywords from the Job Description")
}

func TestInterviewPrompts(t *testing.T) {
	c := newTestComposer(t, nil)

	assert.Contains(t, c.InterviewStart(""), "what is your full name?")
	assert.Contains(t, c.InterviewStart("Data engineer"), "job description")
	assert.NotEqual(t, c.InterviewStart(""), c.InterviewStart("Data engineer"))

	prompt := c.InterviewTurn("", history, "Jane Doe")
	assert.Contains(t, prompt, "1. Full name\n2. Contact details")
	assert.Contains(t, prompt, "7. Education")
	assert.Contains(t, prompt, "[BUILD_COMPLETE]")
	assert.Contains(t, prompt, `"Jane Doe"`)
	assert.NotContains(t, prompt, "Job Description (Target)")

	assert.Contains(t, c.InterviewTurn("Data engineer", history, "Jane"), "**The Job Description (Target):**\nData engineer")
}

func TestSynthesisVariants(t *testing.T) {
	c := newTestComposer(t, nil)

	improve := c.Synthesis("\n[Full Name]\nEXPERIENCE\n", "ORIGINAL", history, "")
	assert.Contains(t, improve, "**RULES (Strict):**\n1. **Use Improved Text:**")
	assert.Contains(t, improve, "4. **Format:**")
	assert.Contains(t, improve, "- **ATS Template Structure:**\n[Full Name]\nEXPERIENCE\n- **Original Resume (Base):**\nORIGINAL")
	assert.Contains(t, improve, "- **Chat History (Improvements):**\nassistant:")
	assert.NotContains(t, improve, "Tailor to JD")

	targeted := c.Synthesis("[Full Name]", "ORIGINAL", history, "Go")
	assert.Contains(t, targeted, "1. **Tailor to JD:**")
	assert.Contains(t, targeted, "5. **Format:**")
	assert.Contains(t, targeted, "- **Job Description (Target):**\nGo")

	build := c.Synthesis("[Full Name]", "", history, "")
	assert.Contains(t, build, "1. **Use Only The Interview:**")
	assert.Contains(t, build, "- **Interview History:**\nassistant:")
	assert.NotContains(t, build, "Original Resume")
}

func TestSynthesisIsDeterministic(t *testing.T) {
	c := newTestComposer(t, nil)
	first := c.Synthesis("[Full Name]", "ORIGINAL", history, "Go")
	second := c.Synthesis("[Full Name]", "ORIGINAL", history, "Go")
	assert.Equal(t, first, second)
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "(no messages yet)", FormatHistory(nil))
	assert.Equal(t, "user: hi\nassistant: hello", FormatHistory([]session.Message{
		{Role: session.RoleUser, Content: " hi "},
		{Role: session.RoleAssistant, Content: "hello"},
	}))
}

func TestOverrides(t *testing.T) {
	c := newTestComposer(t, map[string]string{
		config.PromptChatStart: "Coach on: {{.AnalysisSummary}} ({{.Today}})",
	})
	assert.Equal(t, "Coach on: SUMMARY (March 07, 2025)", c.ChatStart("SUMMARY"))

	require.NoError(t, c.SetOverrides(nil))
	assert.Contains(t, c.ChatStart("SUMMARY"), "---ANALYSIS---")
}

func TestInvalidOverrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		wantErr   string
	}{
		{name: "parse error", overrides: map[string]string{config.PromptChatTurn: "{{.Latest"}, wantErr: "invalid chatTurn prompt template"},
		{name: "unknown field", overrides: map[string]string{config.PromptChatStart: "{{.ResumeText}}"}, wantErr: "invalid chatStart prompt template"},
		{name: "unknown name", overrides: map[string]string{"welcome": "hi"}, wantErr: "unknown prompt override"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{Overrides: tt.overrides})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	c := newTestComposer(t, map[string]string{config.PromptChatStart: "custom {{.AnalysisSummary}}"})
	assert.Error(t, c.SetOverrides(map[string]string{config.PromptChatStart: "{{"}))
	assert.Equal(t, "custom X", c.ChatStart("X"), "failed reload keeps the previous overrides")
}
