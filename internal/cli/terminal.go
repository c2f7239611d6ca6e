package cli

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"resumecoach/internal/common"
	"resumecoach/internal/errors"
	"resumecoach/internal/parser"
	"resumecoach/internal/session"
	"resumecoach/internal/types"
	"resumecoach/internal/workflow"
)

// errQuit ends an interactive session at the user's request.
var errQuit = stderrors.New("session ended by the user")

const (
	cmdQuit = "/quit"
	cmdExit = "/exit"
)

// terminal is a line-oriented conversation on the user's console.
type terminal struct {
	in  *bufio.Scanner
	out io.Writer
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &terminal{in: scanner, out: out}
}

func (t *terminal) say(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

// ask prints the prompt and reads one non-empty line. It reports false on
// end of input or when the user asks to quit.
func (t *terminal) ask() (string, bool) {
	for {
		t.say("\nYou> ")
		if !t.in.Scan() {
			return "", false
		}
		line := strings.TrimSpace(t.in.Text())
		switch line {
		case "":
			continue
		case cmdQuit, cmdExit:
			return "", false
		}
		return line, true
	}
}

// retryable reports whether err leaves the session usable for another
// attempt at the same step.
func retryable(err error) bool {
	appErr, ok := errors.As(err)
	if !ok {
		return false
	}
	return appErr.Type == errors.ErrorTypeAI || appErr.Type == errors.ErrorTypeNetwork ||
		appErr.Code == errors.ErrCodeInvalidRequest
}

func (t *terminal) showAnalysis(source string, s session.Session, result parser.AnalysisResult) error {
	report := types.AnalysisReport{
		Source:          source,
		Mode:            s.Mode(),
		ATSScore:        result.ATSScore,
		HasScore:        result.HasScore,
		TotalWeaknesses: result.TotalWeaknesses,
		Summary:         result.Summary,
	}
	return common.NewOutputHandler(errors.Discard()).WithStdout(t.out).
		HandleOutput(report, common.CommandConfig{OutputFormat: "text"})
}

// runGuidedChat takes s from analysis_review to done, one weakness at a
// time.
func runGuidedChat(ctx context.Context, m *workflow.Machine, s session.Session, t *terminal) (session.Session, error) {
	next, opening, err := m.BeginImproveChat(ctx, s)
	if err != nil {
		return s, err
	}
	s = next
	t.say("\nCoach: %s\n", opening)
	t.say("(Type %s to stop.)\n", cmdQuit)

	for s.State != session.StateDone {
		line, ok := t.ask()
		if !ok {
			return s, errQuit
		}

		next, reply, err := m.SendChatMessage(ctx, s, line)
		if err != nil {
			if retryable(err) {
				t.say("\nThe coach could not answer (%v). Please try again.\n", err)
				continue
			}
			return s, err
		}
		s = next
		t.say("\nCoach: %s\n", reply.Reply)
		if reply.Resolved {
			t.say("[%d of %d weaknesses addressed]\n", reply.WeaknessesCovered, reply.TotalWeaknesses)
		}
	}

	t.say("\nEvery weakness has been addressed.\n")
	return s, nil
}

// runInterview builds a resume from scratch and analyzes it, leaving s in
// analysis_review.
func runInterview(ctx context.Context, m *workflow.Machine, s session.Session, jobDescription string, t *terminal) (session.Session, parser.AnalysisResult, error) {
	next, opening, err := m.BeginInterview(ctx, s, jobDescription)
	if err != nil {
		return s, parser.AnalysisResult{}, err
	}
	s = next
	t.say("\nInterviewer: %s\n", opening)
	t.say("(Type %s to stop.)\n", cmdQuit)

	for !s.BuildComplete {
		line, ok := t.ask()
		if !ok {
			return s, parser.AnalysisResult{}, errQuit
		}

		next, reply, err := m.SendInterviewMessage(ctx, s, line)
		if err != nil {
			if retryable(err) {
				t.say("\nThe interviewer could not answer (%v). Please try again.\n", err)
				continue
			}
			return s, parser.AnalysisResult{}, err
		}
		s = next
		t.say("\nInterviewer: %s\n", reply.Reply)
	}

	for {
		t.say("\nBuilding your resume from the interview...\n")
		next, result, err := m.FinishInterview(ctx, s)
		if err == nil {
			return next, result, nil
		}
		if !retryable(err) {
			return s, parser.AnalysisResult{}, err
		}
		t.say("\nThe resume could not be built (%v). Type anything to retry or %s to stop.\n", err, cmdQuit)
		if _, ok := t.ask(); !ok {
			return s, parser.AnalysisResult{}, errQuit
		}
	}
}

// writeDocument renders s with templateName and writes the PDF to output,
// defaulting to the template's download name.
func writeDocument(ctx context.Context, m *workflow.Machine, s session.Session, templateName, output string, fp *common.FileProcessor) (session.Session, types.RenderReport, error) {
	next, doc, err := m.GenerateDocument(ctx, s, templateName)
	if err != nil {
		return s, types.RenderReport{}, err
	}
	if output == "" {
		output = doc.Filename
	}
	if err := fp.ValidateOutputFile(output); err != nil {
		return s, types.RenderReport{}, err
	}
	if err := fp.WriteFile(output, doc.Bytes); err != nil {
		return s, types.RenderReport{}, err
	}
	return next, types.RenderReport{Output: output, Template: doc.Template, Bytes: len(doc.Bytes)}, nil
}
