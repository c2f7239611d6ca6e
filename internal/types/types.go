package types

import (
	"resumecoach/internal/session"
	"resumecoach/internal/synth"
)

// AnalysisReport is the output of the analyze command.
type AnalysisReport struct {
	Source          string       `json:"source" yaml:"source"`
	Mode            session.Mode `json:"mode" yaml:"mode"`
	ATSScore        int          `json:"ats_score,omitempty" yaml:"ats_score,omitempty"`
	HasScore        bool         `json:"has_score" yaml:"has_score"`
	TotalWeaknesses int          `json:"total_weaknesses" yaml:"total_weaknesses"`
	Summary         string       `json:"summary" yaml:"summary"`
}

// TemplateList is the output of the templates command.
type TemplateList struct {
	Templates []synth.TemplateInfo `json:"templates" yaml:"templates"`
}

// RenderReport describes a PDF written by the render, coach and interview
// commands.
type RenderReport struct {
	Output   string           `json:"output" yaml:"output"`
	Template session.Template `json:"template" yaml:"template"`
	Bytes    int              `json:"bytes" yaml:"bytes"`
}
