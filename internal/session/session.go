// Package session holds the conversation state of one user's pass through
// the resume workflow, plus an in-memory store for the server transports.
package session

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// AppState is a node of the workflow automaton.
type AppState string

const (
	StateUpload         AppState = "upload"
	StateAnalysisReview AppState = "analysis_review"
	StateGuidedChat     AppState = "guided_chat"
	StateInterviewBuild AppState = "interview_build"
	StateDone           AppState = "done"
)

// Valid reports whether s is a known state.
func (s AppState) Valid() bool {
	switch s {
	case StateUpload, StateAnalysisReview, StateGuidedChat, StateInterviewBuild, StateDone:
		return true
	}
	return false
}

// Mode tells whether a session is coached against a job description.
type Mode string

const (
	ModeGeneral  Mode = "general"
	ModeTargeted Mode = "targeted"
)

// LegacyNoJobDescription is the placeholder older clients send instead of
// an empty job description.
const LegacyNoJobDescription = "No job description provided."

// NormalizeJobDescription trims jd and maps the legacy placeholder to "".
func NormalizeJobDescription(jd string) string {
	jd = strings.TrimSpace(jd)
	if strings.EqualFold(jd, LegacyNoJobDescription) {
		return ""
	}
	return jd
}

// ModeFor returns the mode implied by a job description.
func ModeFor(jobDescription string) Mode {
	if NormalizeJobDescription(jobDescription) == "" {
		return ModeGeneral
	}
	return ModeTargeted
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Session is one user's accumulated state across the workflow. It is a
// plain value: transitions receive a copy and return the next one.
type Session struct {
	ID                string    `json:"id,omitempty" yaml:"id,omitempty"`
	State             AppState  `json:"app_state" yaml:"app_state"`
	ResumeText        string    `json:"resume_text" yaml:"resume_text"`
	JobDescription    string    `json:"job_description" yaml:"job_description"`
	AnalysisSummary   string    `json:"analysis_summary" yaml:"analysis_summary"`
	ATSScore          int       `json:"ats_score" yaml:"ats_score"`
	TotalWeaknesses   int       `json:"total_weaknesses" yaml:"total_weaknesses"`
	WeaknessesCovered int       `json:"weaknesses_covered" yaml:"weaknesses_covered"`
	Messages          []Message `json:"messages" yaml:"messages"`
	BuildMessages     []Message `json:"build_messages" yaml:"build_messages"`
	BuildComplete     bool      `json:"build_complete" yaml:"build_complete"`
	InterviewTurns    int       `json:"interview_turns" yaml:"interview_turns"`
	SelectedTemplate  Template  `json:"selected_template" yaml:"selected_template"`
	FinalDocument     []byte    `json:"final_document,omitempty" yaml:"-"`
	CreatedAt         time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" yaml:"updated_at"`
}

// New returns a session in the upload state.
func New(now time.Time) Session {
	return Session{
		State:            StateUpload,
		SelectedTemplate: TemplateClassic,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Mode derives general or targeted mode from the job description.
func (s Session) Mode() Mode {
	return ModeFor(s.JobDescription)
}

// Clone returns a deep copy so that a failed transition can never leak
// partial appends into the caller's session.
func (s Session) Clone() Session {
	c := s
	c.Messages = slices.Clone(s.Messages)
	c.BuildMessages = slices.Clone(s.BuildMessages)
	c.FinalDocument = slices.Clone(s.FinalDocument)
	return c
}

// ActiveHistory returns the chat history selected by the current state.
func (s Session) ActiveHistory() []Message {
	if s.State == StateInterviewBuild {
		return s.BuildMessages
	}
	return s.Messages
}

// CanGenerateDocument reports whether every weakness has been covered.
func (s Session) CanGenerateDocument() bool {
	return s.State == StateDone && s.TotalWeaknesses > 0 && s.WeaknessesCovered >= s.TotalWeaknesses
}

// Reset discards everything except, optionally, the job description.
func (s Session) Reset(keepJobDescription bool, now time.Time) Session {
	next := New(now)
	next.ID = s.ID
	next.CreatedAt = s.CreatedAt
	if keepJobDescription {
		next.JobDescription = s.JobDescription
	}
	return next
}

// Validate checks the invariants every transition must preserve. Sessions
// submitted by stateless clients are checked with it before use.
func (s Session) Validate() error {
	if !s.State.Valid() {
		return fmt.Errorf("unknown app_state %q", s.State)
	}
	if s.TotalWeaknesses < 0 || s.WeaknessesCovered < 0 {
		return fmt.Errorf("weakness counters cannot be negative")
	}
	if s.WeaknessesCovered > s.TotalWeaknesses {
		return fmt.Errorf("weaknesses_covered (%d) exceeds total_weaknesses (%d)", s.WeaknessesCovered, s.TotalWeaknesses)
	}
	if s.ATSScore < 0 || s.ATSScore > 100 {
		return fmt.Errorf("ats_score %d out of range 0-100", s.ATSScore)
	}
	if s.Mode() == ModeGeneral && s.ATSScore != 0 {
		return fmt.Errorf("ats_score is only set for targeted sessions")
	}
	if _, err := ParseTemplate(string(s.SelectedTemplate)); err != nil {
		return err
	}

	switch s.State {
	case StateAnalysisReview, StateGuidedChat, StateDone:
		if s.TotalWeaknesses < 1 {
			return fmt.Errorf("total_weaknesses must be at least 1 after analysis")
		}
		if s.ResumeText == "" {
			return fmt.Errorf("resume_text is required in state %s", s.State)
		}
		if len(s.BuildMessages) > 0 {
			return fmt.Errorf("build_messages must be empty in state %s", s.State)
		}
	case StateInterviewBuild:
		if len(s.Messages) > 0 {
			return fmt.Errorf("messages must be empty while interviewing")
		}
	}
	for i, m := range slices.Concat(s.Messages, s.BuildMessages) {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("message %d has unknown role %q", i, m.Role)
		}
	}
	return nil
}
