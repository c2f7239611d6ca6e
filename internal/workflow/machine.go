// Package workflow implements the resume coaching state machine. Every
// operation takes a session value and returns the next one; on error the
// input session is returned untouched, so nothing is committed until the
// engine has answered and its reply has been parsed.
package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"resumecoach/internal/ai"
	"resumecoach/internal/errors"
	"resumecoach/internal/extract"
	"resumecoach/internal/observability"
	"resumecoach/internal/parser"
	"resumecoach/internal/prompts"
	"resumecoach/internal/session"
	"resumecoach/internal/synth"
)

// ChatFallback replaces an empty opening message from the engine.
const ChatFallback = "I'm sorry, I had an error processing that request. Let's start with your first work experience. Can you tell me about it?"

// InterviewLimitNote is appended to the reply that hits the turn limit.
const InterviewLimitNote = "We have covered the maximum number of questions for this interview. Finish the interview to build your resume from what we have so far."

// DefaultMaxInterviewTurns bounds the interview when no limit is configured.
const DefaultMaxInterviewTurns = 30

// Operation names, shared by the transports and the metrics.
const (
	OpSubmitResume         = "submit_resume"
	OpBeginImproveChat     = "begin_improve_chat"
	OpSendChatMessage      = "send_chat_message"
	OpBeginInterview       = "begin_interview"
	OpSendInterviewMessage = "send_interview_message"
	OpFinishInterview      = "finish_interview"
	OpGenerateDocument     = "generate_document"
	OpReset                = "reset"
)

// Extractor turns an uploaded file into resume text.
type Extractor interface {
	Extract(ctx context.Context, upload extract.Upload) (string, error)
}

// ChatReply is the result of one improvement chat turn.
type ChatReply struct {
	Reply             string           `json:"reply" yaml:"reply"`
	Resolved          bool             `json:"resolved" yaml:"resolved"`
	WeaknessesCovered int              `json:"weaknesses_covered" yaml:"weaknesses_covered"`
	TotalWeaknesses   int              `json:"total_weaknesses" yaml:"total_weaknesses"`
	State             session.AppState `json:"state" yaml:"state"`
}

// InterviewReply is the result of one interview turn.
type InterviewReply struct {
	Reply    string           `json:"reply" yaml:"reply"`
	Complete bool             `json:"complete" yaml:"complete"`
	Turns    int              `json:"turns" yaml:"turns"`
	State    session.AppState `json:"state" yaml:"state"`
}

// Options configures a Machine.
type Options struct {
	MaxInterviewTurns int
	Metrics           *observability.Metrics
	// Now is replaced in tests.
	Now func() time.Time
}

// Machine drives sessions through the workflow.
type Machine struct {
	engines           ai.Engines
	composer          *prompts.Composer
	extractor         Extractor
	synthesizer       *synth.Synthesizer
	maxInterviewTurns int
	metrics           *observability.Metrics
	now               func() time.Time
	logger            *errors.Logger
}

// New creates a machine. extractor may be nil when only text submissions
// are used.
func New(engines ai.Engines, composer *prompts.Composer, extractor Extractor, synthesizer *synth.Synthesizer, opts Options, logger *errors.Logger) *Machine {
	if opts.MaxInterviewTurns <= 0 {
		opts.MaxInterviewTurns = DefaultMaxInterviewTurns
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{
		engines:           engines,
		composer:          composer,
		extractor:         extractor,
		synthesizer:       synthesizer,
		maxInterviewTurns: opts.MaxInterviewTurns,
		metrics:           opts.Metrics,
		now:               opts.Now,
		logger:            logger,
	}
}

// MaxInterviewTurns reports the configured interview bound.
func (m *Machine) MaxInterviewTurns() int {
	return m.maxInterviewTurns
}

// SubmitResume extracts the text of upload and analyzes it.
// upload → analysis_review.
func (m *Machine) SubmitResume(ctx context.Context, s session.Session, upload extract.Upload, jobDescription string) (session.Session, parser.AnalysisResult, error) {
	if err := requireState(s, OpSubmitResume, session.StateUpload); err != nil {
		return s, parser.AnalysisResult{}, err
	}
	if m.extractor == nil {
		return s, parser.AnalysisResult{}, errors.NewConfigError(errors.ErrCodeInvalidConfig, "file extraction is not configured", nil)
	}

	var (
		next   session.Session
		result parser.AnalysisResult
	)
	err := m.metrics.TrackOperation(ctx, OpSubmitResume, true, func(ctx context.Context) error {
		text, err := m.extractor.Extract(ctx, upload)
		if err != nil {
			return err
		}
		next, result, err = m.analyze(ctx, s, text, jobDescription)
		return err
	})
	if err != nil {
		return s, parser.AnalysisResult{}, err
	}
	return next, result, nil
}

// SubmitResumeText analyzes resume text that was extracted elsewhere.
// upload → analysis_review.
func (m *Machine) SubmitResumeText(ctx context.Context, s session.Session, text, jobDescription string) (session.Session, parser.AnalysisResult, error) {
	if err := requireState(s, OpSubmitResume, session.StateUpload); err != nil {
		return s, parser.AnalysisResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		return s, parser.AnalysisResult{}, errors.NewValidationError(errors.ErrCodeInsufficientText, "resume text is empty", nil)
	}

	var (
		next   session.Session
		result parser.AnalysisResult
	)
	err := m.metrics.TrackOperation(ctx, OpSubmitResume, true, func(ctx context.Context) error {
		var err error
		next, result, err = m.analyze(ctx, s, strings.TrimSpace(text), jobDescription)
		return err
	})
	if err != nil {
		return s, parser.AnalysisResult{}, err
	}
	return next, result, nil
}

// analyze runs the initial analysis shared by submissions and the
// interview loop-back.
func (m *Machine) analyze(ctx context.Context, s session.Session, resumeText, jobDescription string) (session.Session, parser.AnalysisResult, error) {
	jd := carriedJobDescription(s, jobDescription)
	mode := session.ModeFor(jd)

	raw, err := m.engines.Analyze.Complete(ctx, m.composer.InitialAnalysis(resumeText, jd))
	if err != nil {
		m.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, false, attribute.String("mode", string(mode)))
		return s, parser.AnalysisResult{}, err
	}
	result := parser.ParseAnalysis(raw, mode)

	next := s.Clone()
	next.State = session.StateAnalysisReview
	next.ResumeText = resumeText
	next.JobDescription = jd
	next.AnalysisSummary = result.Summary
	next.ATSScore = result.ATSScore
	next.TotalWeaknesses = result.TotalWeaknesses
	next.WeaknessesCovered = 0
	next.Messages = nil
	next.BuildMessages = nil
	next.BuildComplete = false
	next.InterviewTurns = 0
	next.FinalDocument = nil
	next.UpdatedAt = m.now()

	m.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, true, attribute.String("mode", string(mode)))
	m.logger.Info("Resume analyzed",
		"session_id", s.ID,
		"mode", mode,
		"ats_score", result.ATSScore,
		"total_weaknesses", result.TotalWeaknesses)
	return next, result, nil
}

// BeginImproveChat opens the guided chat with the engine's greeting.
// analysis_review → guided_chat.
func (m *Machine) BeginImproveChat(ctx context.Context, s session.Session) (session.Session, string, error) {
	if err := requireState(s, OpBeginImproveChat, session.StateAnalysisReview); err != nil {
		return s, "", err
	}

	var next session.Session
	var message string
	err := m.metrics.TrackOperation(ctx, OpBeginImproveChat, true, func(ctx context.Context) error {
		raw, err := m.engines.Chat.Complete(ctx, m.composer.ChatStart(s.AnalysisSummary))
		if err != nil {
			return err
		}
		message = strings.TrimSpace(raw)
		if message == "" {
			message = ChatFallback
		}

		next = s.Clone()
		next.State = session.StateGuidedChat
		next.Messages = []session.Message{{Role: session.RoleAssistant, Content: message}}
		next.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return s, "", err
	}
	m.logger.Debug("Improvement chat started", "session_id", s.ID, "total_weaknesses", s.TotalWeaknesses)
	return next, message, nil
}

// SendChatMessage answers one user message of the guided chat. A resolved
// turn advances the weakness counter; covering the last one moves the
// session to done.
func (m *Machine) SendChatMessage(ctx context.Context, s session.Session, text string) (session.Session, ChatReply, error) {
	if err := requireState(s, OpSendChatMessage, session.StateGuidedChat); err != nil {
		return s, ChatReply{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return s, ChatReply{}, emptyMessage()
	}

	var next session.Session
	var reply ChatReply
	err := m.metrics.TrackOperation(ctx, OpSendChatMessage, true, func(ctx context.Context) error {
		prompt := m.composer.ChatTurn(s.ResumeText, s.AnalysisSummary, s.JobDescription, s.Messages, text)
		raw, err := m.engines.Chat.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		turn := parser.ParseChatTurn(raw)

		next = s.Clone()
		next.Messages = append(next.Messages,
			session.Message{Role: session.RoleUser, Content: text},
			session.Message{Role: session.RoleAssistant, Content: turn.Display})
		if turn.Resolved && next.WeaknessesCovered < next.TotalWeaknesses {
			next.WeaknessesCovered++
			m.metrics.RecordBusinessMetric(ctx, observability.MetricWeaknessResolved, true)
		}
		if next.WeaknessesCovered >= next.TotalWeaknesses {
			next.State = session.StateDone
		}
		next.UpdatedAt = m.now()

		reply = ChatReply{
			Reply:             turn.Display,
			Resolved:          turn.Resolved,
			WeaknessesCovered: next.WeaknessesCovered,
			TotalWeaknesses:   next.TotalWeaknesses,
			State:             next.State,
		}
		return nil
	})
	m.metrics.RecordBusinessMetric(ctx, observability.MetricChatTurn, err == nil)
	if err != nil {
		return s, ChatReply{}, err
	}

	if next.State == session.StateDone {
		m.logger.Info("All weaknesses covered", "session_id", s.ID, "total_weaknesses", next.TotalWeaknesses)
	}
	return next, reply, nil
}

// BeginInterview starts building a resume from scratch. The opening
// question is fixed, so the engine is not called.
// upload → interview_build.
func (m *Machine) BeginInterview(ctx context.Context, s session.Session, jobDescription string) (session.Session, string, error) {
	if err := requireState(s, OpBeginInterview, session.StateUpload); err != nil {
		return s, "", err
	}

	var next session.Session
	var message string
	_ = m.metrics.TrackOperation(ctx, OpBeginInterview, false, func(context.Context) error {
		jd := carriedJobDescription(s, jobDescription)
		message = m.composer.InterviewStart(jd)

		next = s.Clone()
		next.State = session.StateInterviewBuild
		next.JobDescription = jd
		next.Messages = nil
		next.BuildMessages = []session.Message{{Role: session.RoleAssistant, Content: message}}
		next.BuildComplete = false
		next.InterviewTurns = 0
		next.UpdatedAt = m.now()
		return nil
	})
	m.logger.Debug("Interview started", "session_id", s.ID, "mode", next.Mode())
	return next, message, nil
}

// SendInterviewMessage answers one interview message. The interview is
// complete when the engine says so or the turn limit is reached.
func (m *Machine) SendInterviewMessage(ctx context.Context, s session.Session, text string) (session.Session, InterviewReply, error) {
	if err := requireState(s, OpSendInterviewMessage, session.StateInterviewBuild); err != nil {
		return s, InterviewReply{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return s, InterviewReply{}, emptyMessage()
	}
	if s.InterviewTurns >= m.maxInterviewTurns {
		return s, InterviewReply{}, errors.NewStateError(errors.ErrCodeInvalidTransition,
			"the interview has reached its question limit, finish it to continue", nil).
			WithContext("operation", OpSendInterviewMessage).
			WithContext("max_turns", m.maxInterviewTurns)
	}

	var next session.Session
	var reply InterviewReply
	err := m.metrics.TrackOperation(ctx, OpSendInterviewMessage, true, func(ctx context.Context) error {
		prompt := m.composer.InterviewTurn(s.JobDescription, s.BuildMessages, text)
		raw, err := m.engines.Interview.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		turn := parser.ParseInterviewTurn(raw)

		next = s.Clone()
		next.InterviewTurns++
		display := turn.Display
		if turn.Complete {
			next.BuildComplete = true
		} else if next.InterviewTurns >= m.maxInterviewTurns {
			next.BuildComplete = true
			display = joinParagraphs(display, InterviewLimitNote)
			m.logger.Warn("Interview turn limit reached", "session_id", s.ID, "turns", next.InterviewTurns)
		}
		next.BuildMessages = append(next.BuildMessages,
			session.Message{Role: session.RoleUser, Content: text},
			session.Message{Role: session.RoleAssistant, Content: display})
		next.UpdatedAt = m.now()

		reply = InterviewReply{
			Reply:    display,
			Complete: next.BuildComplete,
			Turns:    next.InterviewTurns,
			State:    next.State,
		}
		return nil
	})
	m.metrics.RecordBusinessMetric(ctx, observability.MetricInterviewTurn, err == nil)
	if err != nil {
		return s, InterviewReply{}, err
	}
	return next, reply, nil
}

// FinishInterview synthesizes a resume from the interview and analyzes it
// like an uploaded one.
// interview_build → analysis_review.
func (m *Machine) FinishInterview(ctx context.Context, s session.Session) (session.Session, parser.AnalysisResult, error) {
	if err := requireState(s, OpFinishInterview, session.StateInterviewBuild); err != nil {
		return s, parser.AnalysisResult{}, err
	}
	if !s.BuildComplete {
		return s, parser.AnalysisResult{}, errors.NewStateError(errors.ErrCodeInvalidTransition,
			"the interview is not complete yet", nil).
			WithContext("operation", OpFinishInterview)
	}

	var (
		next   session.Session
		result parser.AnalysisResult
	)
	err := m.metrics.TrackOperation(ctx, OpFinishInterview, true, func(ctx context.Context) error {
		prompt := m.composer.Synthesis(synth.Skeleton(session.TemplateClassic), "", s.BuildMessages, s.JobDescription)
		raw, err := m.engines.Synthesize.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		text := synth.CleanText(raw)
		if text == "" {
			return errors.NewAIError(errors.ErrCodeAIServiceFailed, "the engine returned an empty resume", nil).
				WithContext("operation", OpFinishInterview)
		}
		next, result, err = m.analyze(ctx, s, text, s.JobDescription)
		return err
	})
	if err != nil {
		return s, parser.AnalysisResult{}, err
	}
	m.logger.Info("Interview finished", "session_id", s.ID, "interview_turns", s.InterviewTurns)
	return next, result, nil
}

// SynthesisPrompt is the exact prompt GenerateDocument sends for s and t.
func (m *Machine) SynthesisPrompt(s session.Session, t session.Template) string {
	return m.composer.Synthesis(synth.Skeleton(t), s.ResumeText, s.Messages, s.JobDescription)
}

// GenerateDocument synthesizes the improved resume and renders it with
// template name. It may be repeated; the state stays done.
func (m *Machine) GenerateDocument(ctx context.Context, s session.Session, templateName string) (session.Session, synth.Document, error) {
	if err := requireState(s, OpGenerateDocument, session.StateDone); err != nil {
		return s, synth.Document{}, err
	}
	t, err := session.ParseTemplate(templateName)
	if err != nil {
		return s, synth.Document{}, errors.NewValidationError(errors.ErrCodeInvalidTemplate, err.Error(), nil).
			WithContext("template", templateName)
	}

	var next session.Session
	var doc synth.Document
	err = m.metrics.TrackOperation(ctx, OpGenerateDocument, true, func(ctx context.Context) error {
		raw, err := m.engines.Synthesize.Complete(ctx, m.SynthesisPrompt(s, t))
		if err != nil {
			return err
		}
		doc, err = m.synthesizer.Render(ctx, raw, t)
		if err != nil {
			return err
		}

		next = s.Clone()
		next.SelectedTemplate = t
		next.FinalDocument = slices.Clone(doc.Bytes)
		next.UpdatedAt = m.now()
		return nil
	})
	m.metrics.RecordBusinessMetric(ctx, observability.MetricDocumentRendered, err == nil, attribute.String("template", string(t)))
	if err != nil {
		return s, synth.Document{}, err
	}
	m.logger.Info("Resume document generated", "session_id", s.ID, "template", t, "bytes", len(doc.Bytes))
	return next, doc, nil
}

// Reset returns s to the upload state, keeping the job description when
// asked to.
func (m *Machine) Reset(s session.Session, keepJobDescription bool) session.Session {
	m.logger.Debug("Session reset", "session_id", s.ID, "from_state", s.State, "keep_job_description", keepJobDescription)
	return s.Reset(keepJobDescription, m.now())
}

func requireState(s session.Session, operation string, allowed ...session.AppState) error {
	if slices.Contains(allowed, s.State) {
		return nil
	}
	return errors.NewStateError(errors.ErrCodeInvalidTransition,
		fmt.Sprintf("%s is not allowed in state %s", operation, s.State), nil).
		WithContext("operation", operation).
		WithContext("state", string(s.State))
}

// carriedJobDescription prefers the given job description and falls back to
// the one kept on the session by a reset.
func carriedJobDescription(s session.Session, jobDescription string) string {
	if jd := session.NormalizeJobDescription(jobDescription); jd != "" {
		return jd
	}
	return session.NormalizeJobDescription(s.JobDescription)
}

func emptyMessage() error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, "message cannot be empty", nil)
}

func joinParagraphs(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
