package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumecoach/internal/ai"
	"resumecoach/internal/common"
	"resumecoach/internal/config"
	"resumecoach/internal/errors"
	"resumecoach/internal/parser"
	"resumecoach/internal/prompts"
	"resumecoach/internal/session"
	"resumecoach/internal/synth"
	"resumecoach/internal/workflow"
)

const resumeText = "Jane Doe\nSoftware Engineer at Acme Corp since 2019, building payment APIs in Go.\nEducation: BSc Computer Science"

const twoWeaknesses = `Good foundation.

Weaknesses:
1. No metrics.
2. Weak summary.
Total Weaknesses: 2`

type queueEngine struct {
	mu      sync.Mutex
	replies []string
}

func (e *queueEngine) Complete(context.Context, string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.replies) == 0 {
		return "", errors.NewAIError(errors.ErrCodeAIServiceFailed, "engine unavailable", nil)
	}
	reply := e.replies[0]
	e.replies = e.replies[1:]
	return reply, nil
}

type pdfRenderer struct{}

func (pdfRenderer) Render(_ context.Context, text string) ([]byte, error) {
	return []byte("%PDF-1.3\n" + text), nil
}

type harness struct {
	machine                              *workflow.Machine
	analyze, chat, interview, synthesize *queueEngine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	composer, err := prompts.New(prompts.Options{})
	require.NoError(t, err)

	h := &harness{
		analyze:    &queueEngine{},
		chat:       &queueEngine{},
		interview:  &queueEngine{},
		synthesize: &queueEngine{},
	}
	h.machine = workflow.New(ai.Engines{
		Analyze:    h.analyze,
		Chat:       h.chat,
		Interview:  h.interview,
		Synthesize: h.synthesize,
	}, composer, nil, synth.New(pdfRenderer{}, errors.Discard()),
		workflow.Options{MaxInterviewTurns: 2}, errors.Discard())
	return h
}

func (h *harness) analyzed(t *testing.T) session.Session {
	t.Helper()
	h.analyze.replies = []string{twoWeaknesses}
	s, _, err := h.machine.SubmitResumeText(context.Background(), session.New(time.Now()), resumeText, "")
	require.NoError(t, err)
	return s
}

func TestGuidedChatOnTerminal(t *testing.T) {
	h := newHarness(t)
	s := h.analyzed(t)

	h.chat.replies = []string{
		"Let's start with metrics. What did you improve?",
		"Could you put a number on it?",
		"Great. " + parser.ResolvedMarker + " Now the summary.",
		"Perfect. " + parser.ResolvedMarker,
	}

	var out bytes.Buffer
	in := strings.NewReader("I made things faster\n\nLatency down 40%\nBackend engineer for payments\n")
	s, err := runGuidedChat(context.Background(), h.machine, s, newTerminal(in, &out))
	require.NoError(t, err)

	assert.Equal(t, session.StateDone, s.State)
	assert.Equal(t, 2, s.WeaknessesCovered)
	assert.Contains(t, out.String(), "[1 of 2 weaknesses addressed]")
	assert.Contains(t, out.String(), "Every weakness has been addressed.")
	assert.NotContains(t, out.String(), parser.ResolvedMarker)
}

func TestGuidedChatRetriesEngineFailures(t *testing.T) {
	h := newHarness(t)
	s := h.analyzed(t)

	// Only the opening is scripted, so the first answer fails and the loop
	// asks again; /quit then ends the session.
	h.chat.replies = []string{"Opening question?"}
	var out bytes.Buffer
	term := newTerminal(strings.NewReader("first answer\n/quit\n"), &out)

	s, err := runGuidedChat(context.Background(), h.machine, s, term)
	assert.ErrorIs(t, err, errQuit)
	assert.Equal(t, session.StateGuidedChat, s.State)
	assert.Equal(t, 0, s.WeaknessesCovered)
	assert.Contains(t, out.String(), "could not answer")
}

func TestInterviewOnTerminal(t *testing.T) {
	h := newHarness(t)
	h.interview.replies = []string{"Which tools did you use?", "Thanks, that helps."}
	h.synthesize.replies = []string{resumeText}
	h.analyze.replies = []string{twoWeaknesses}

	var out bytes.Buffer
	in := strings.NewReader("I built payment APIs at Acme for five years\nGo and Postgres\n")
	s, result, err := runInterview(context.Background(), h.machine, session.New(time.Now()), "", newTerminal(in, &out))
	require.NoError(t, err)

	// The second answer reaches the turn limit of two.
	assert.Equal(t, session.StateAnalysisReview, s.State)
	assert.Equal(t, 2, result.TotalWeaknesses)
	assert.Contains(t, out.String(), workflow.InterviewLimitNote)
	assert.Contains(t, out.String(), "Building your resume")
}

func TestInterviewQuit(t *testing.T) {
	h := newHarness(t)

	var out bytes.Buffer
	s, _, err := runInterview(context.Background(), h.machine, session.New(time.Now()), "", newTerminal(strings.NewReader("/quit\n"), &out))
	assert.ErrorIs(t, err, errQuit)
	assert.Equal(t, session.StateInterviewBuild, s.State)
}

func TestWriteDocument(t *testing.T) {
	h := newHarness(t)
	s := h.analyzed(t)
	s.State = session.StateDone
	s.WeaknessesCovered = s.TotalWeaknesses

	h.synthesize.replies = []string{"```\nJANE DOE\n```"}
	out := filepath.Join(t.TempDir(), "cv", "jane.pdf")
	next, report, err := writeDocument(context.Background(), h.machine, s, "modern", out, common.NewFileProcessor(errors.Discard()))
	require.NoError(t, err)

	assert.Equal(t, out, report.Output)
	assert.Equal(t, session.TemplateModern, report.Template)
	assert.Equal(t, session.TemplateModern, next.SelectedTemplate)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.Len(t, data, report.Bytes)

	_, _, err = writeDocument(context.Background(), h.machine, s, "fancy", out, common.NewFileProcessor(errors.Discard()))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTemplate))
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(in, []byte("JANE DOE\n\nEXPERIENCE\n- Built “payment” APIs\n"), 0600))
	out := filepath.Join(dir, "resume.pdf")

	renderCfg := config.RenderConfig{Engine: "fpdf", FontFamily: "Arial", FontSize: 10, LineHeight: 5}
	report, err := renderFile(context.Background(), renderCfg, errors.Discard(), in, "skills-first", out)
	require.NoError(t, err)
	assert.Equal(t, session.TemplateSkillsFirst, report.Template)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = renderFile(context.Background(), renderCfg, errors.Discard(), in, "bogus", out)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTemplate))
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(errors.NewAIError(errors.ErrCodeAITimeout, "slow", nil)))
	assert.True(t, retryable(errors.NewValidationError(errors.ErrCodeInvalidRequest, "empty", nil)))
	assert.False(t, retryable(errors.NewStateError(errors.ErrCodeInvalidTransition, "no", nil)))
	assert.False(t, retryable(os.ErrNotExist))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "resumecoach version "+Version)
}
