package session

import (
	"fmt"
	"strings"
)

// Template names one of the fixed resume layouts.
type Template string

const (
	TemplateClassic     Template = "classic"
	TemplateModern      Template = "modern"
	TemplateSkillsFirst Template = "skills_first"
)

// Templates lists the layouts in display order.
func Templates() []Template {
	return []Template{TemplateClassic, TemplateModern, TemplateSkillsFirst}
}

// Label is the human readable name shown in pickers.
func (t Template) Label() string {
	switch t {
	case TemplateModern:
		return "Modern (With Competencies)"
	case TemplateSkillsFirst:
		return "Skills-First (Functional)"
	default:
		return "Classic (Single-Column)"
	}
}

// Filename is the download name of a document rendered from t.
func (t Template) Filename() string {
	return fmt.Sprintf("improved_resume_%s.pdf", t)
}

// ParseTemplate accepts a template name, ignoring case and treating "-" as
// "_". An empty name selects the classic layout.
func ParseTemplate(name string) (Template, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	switch Template(normalized) {
	case "":
		return TemplateClassic, nil
	case TemplateClassic, TemplateModern, TemplateSkillsFirst:
		return Template(normalized), nil
	}
	return "", fmt.Errorf("unknown template %q (must be one of classic, modern, skills_first)", name)
}
