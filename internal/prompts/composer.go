// Package prompts builds the instruction text sent to the reasoning engine
// for each workflow transition.
package prompts

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"resumecoach/internal/config"
	"resumecoach/internal/session"
)

// DateLayout is the format of the "today's date" line.
const DateLayout = "January 02, 2006"

// InterviewTopics is the order in which the interview covers a resume.
var InterviewTopics = []string{
	"Full name",
	"Contact details (phone, email, LinkedIn, city)",
	"Professional summary",
	"Skills",
	"Work experience",
	"Projects",
	"Education",
}

var builtins = map[string]string{
	config.PromptInitialAnalysis: initialAnalysisTemplate,
	config.PromptChatStart:       chatStartTemplate,
	config.PromptChatTurn:        chatTurnTemplate,
	config.PromptInterviewStart:  interviewStartTemplate,
	config.PromptInterviewTurn:   interviewTurnTemplate,
	config.PromptSynthesis:       synthesisTemplate,
}

// Sample data used to validate templates before they are accepted. Executing
// against it catches references to fields that do not exist.
var samples = map[string]any{
	config.PromptInitialAnalysis: analysisData{},
	config.PromptChatStart:       chatStartData{},
	config.PromptChatTurn:        chatTurnData{},
	config.PromptInterviewStart:  interviewStartData{},
	config.PromptInterviewTurn:   interviewTurnData{Topics: InterviewTopics},
	config.PromptSynthesis:       synthesisData{},
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

type analysisData struct {
	Today          string
	Targeted       bool
	ResumeText     string
	JobDescription string
}

type chatStartData struct {
	Today           string
	AnalysisSummary string
}

type chatTurnData struct {
	Today           string
	Targeted        bool
	ResumeText      string
	AnalysisSummary string
	JobDescription  string
	History         string
	Latest          string
}

type interviewStartData struct {
	Targeted       bool
	JobDescription string
}

type interviewTurnData struct {
	Today          string
	Targeted       bool
	JobDescription string
	Topics         []string
	History        string
	Latest         string
}

type synthesisData struct {
	Build          bool
	Targeted       bool
	Template       string
	ResumeText     string
	History        string
	JobDescription string
}

// Options configures a Composer.
type Options struct {
	// Now supplies the date for the "today's date" line. Defaults to time.Now.
	Now func() time.Time
	// Overrides replaces built-in templates, keyed by config.Prompt* names.
	Overrides map[string]string
}

// Composer renders prompts. It is safe for concurrent use, and its
// overrides can be swapped while serving.
type Composer struct {
	now func() time.Time

	mu        sync.RWMutex
	templates map[string]*template.Template
	defaults  map[string]*template.Template
}

// New parses the built-in templates and any overrides. An override that
// does not parse or execute is a configuration error.
func New(opts Options) (*Composer, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	defaults, err := parseAll(nil)
	if err != nil {
		return nil, err
	}
	c := &Composer{now: now, defaults: defaults, templates: defaults}
	if err := c.SetOverrides(opts.Overrides); err != nil {
		return nil, err
	}
	return c, nil
}

// SetOverrides replaces the active overrides. On error the previous set
// stays active.
func (c *Composer) SetOverrides(overrides map[string]string) error {
	templates, err := parseAll(overrides)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.templates = templates
	c.mu.Unlock()
	return nil
}

func parseAll(overrides map[string]string) (map[string]*template.Template, error) {
	for name := range overrides {
		if _, ok := builtins[name]; !ok {
			return nil, fmt.Errorf("unknown prompt override %q", name)
		}
	}

	parsed := make(map[string]*template.Template, len(builtins))
	for name, text := range builtins {
		if override, ok := overrides[name]; ok && strings.TrimSpace(override) != "" {
			text = override
		}
		tmpl, err := template.New(name).Funcs(funcs).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("invalid %s prompt template: %w", name, err)
		}
		if err := tmpl.Execute(&strings.Builder{}, samples[name]); err != nil {
			return nil, fmt.Errorf("invalid %s prompt template: %w", name, err)
		}
		parsed[name] = tmpl
	}
	return parsed, nil
}

// render executes the active template, falling back to the built-in one.
// Templates are validated when installed, so the fallback only guards
// against data-dependent failures.
func (c *Composer) render(name string, data any) string {
	c.mu.RLock()
	tmpl := c.templates[name]
	c.mu.RUnlock()

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err == nil {
		return strings.TrimSpace(b.String())
	}
	b.Reset()
	_ = c.defaults[name].Execute(&b, data)
	return strings.TrimSpace(b.String())
}

func (c *Composer) today() string {
	return c.now().Format(DateLayout)
}

// InitialAnalysis asks for a summary, a numbered weakness list and its
// count; with a job description it also asks for an ATS score.
func (c *Composer) InitialAnalysis(resumeText, jobDescription string) string {
	jd := session.NormalizeJobDescription(jobDescription)
	return c.render(config.PromptInitialAnalysis, analysisData{
		Today:          c.today(),
		Targeted:       jd != "",
		ResumeText:     resumeText,
		JobDescription: jd,
	})
}

// ChatStart asks for a greeting that names the first weakness.
func (c *Composer) ChatStart(analysisSummary string) string {
	return c.render(config.PromptChatStart, chatStartData{
		Today:           c.today(),
		AnalysisSummary: analysisSummary,
	})
}

// ChatTurn asks for the coach's reply to the latest user message.
func (c *Composer) ChatTurn(resumeText, analysisSummary, jobDescription string, history []session.Message, latest string) string {
	jd := session.NormalizeJobDescription(jobDescription)
	return c.render(config.PromptChatTurn, chatTurnData{
		Today:           c.today(),
		Targeted:        jd != "",
		ResumeText:      resumeText,
		AnalysisSummary: analysisSummary,
		JobDescription:  jd,
		History:         FormatHistory(history),
		Latest:          latest,
	})
}

// InterviewStart is the fixed opening question of the interview. It is shown
// to the user directly, without an engine call.
func (c *Composer) InterviewStart(jobDescription string) string {
	jd := session.NormalizeJobDescription(jobDescription)
	return c.render(config.PromptInterviewStart, interviewStartData{
		Targeted:       jd != "",
		JobDescription: jd,
	})
}

// InterviewTurn asks for the next interview question.
func (c *Composer) InterviewTurn(jobDescription string, history []session.Message, latest string) string {
	jd := session.NormalizeJobDescription(jobDescription)
	return c.render(config.PromptInterviewTurn, interviewTurnData{
		Today:          c.today(),
		Targeted:       jd != "",
		JobDescription: jd,
		Topics:         InterviewTopics,
		History:        FormatHistory(history),
		Latest:         latest,
	})
}

// Synthesis asks for the final resume text laid out by skeleton. An empty
// resumeText selects the build variant, which works from the interview
// history alone. The prompt depends only on its arguments.
func (c *Composer) Synthesis(skeleton, resumeText string, history []session.Message, jobDescription string) string {
	jd := session.NormalizeJobDescription(jobDescription)
	return c.render(config.PromptSynthesis, synthesisData{
		Build:          strings.TrimSpace(resumeText) == "",
		Targeted:       jd != "",
		Template:       strings.TrimSpace(skeleton),
		ResumeText:     resumeText,
		History:        FormatHistory(history),
		JobDescription: jd,
	})
}

// FormatHistory renders messages as "role: content" lines.
func FormatHistory(history []session.Message) string {
	if len(history) == 0 {
		return "(no messages yet)"
	}
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", m.Role, strings.TrimSpace(m.Content))
	}
	return b.String()
}
