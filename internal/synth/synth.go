// Package synth turns the final resume text into a downloadable document:
// it cleans engine output, normalizes characters for the renderer and
// renders one of the fixed templates to PDF.
package synth

import (
	"context"
	"regexp"
	"strings"

	"resumecoach/internal/errors"
	"resumecoach/internal/session"
)

// ContentTypePDF is the media type of rendered documents.
const ContentTypePDF = "application/pdf"

// Document is a rendered resume.
type Document struct {
	Text        string           `json:"text" yaml:"text"`
	Bytes       []byte           `json:"-" yaml:"-"`
	Template    session.Template `json:"template" yaml:"template"`
	Filename    string           `json:"filename" yaml:"filename"`
	ContentType string           `json:"content_type" yaml:"content_type"`
}

// Synthesizer normalizes resume text and hands it to a Renderer.
type Synthesizer struct {
	renderer Renderer
	logger   *errors.Logger
}

// New creates a synthesizer backed by renderer.
func New(renderer Renderer, logger *errors.Logger) *Synthesizer {
	return &Synthesizer{renderer: renderer, logger: logger}
}

var fenceLine = regexp.MustCompile("^\\s*```[a-zA-Z]*\\s*$")

// CleanText strips the markdown code fence some engine replies wrap the
// resume in, then normalizes the characters.
func CleanText(raw string) string {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n")), "\n")
	if len(lines) >= 2 && fenceLine.MatchString(lines[0]) && fenceLine.MatchString(lines[len(lines)-1]) {
		lines = lines[1 : len(lines)-1]
	}
	return strings.TrimSpace(Normalize(strings.Join(lines, "\n")))
}

// Render produces the PDF for text laid out as template t. No partial
// document is returned on failure.
func (s *Synthesizer) Render(ctx context.Context, text string, t session.Template) (Document, error) {
	text = CleanText(text)
	if text == "" {
		return Document{}, errors.NewInternalError(errors.ErrCodeRenderFailed, "resume text is empty after cleanup", nil).
			WithContext("template", string(t))
	}

	data, err := s.renderer.Render(ctx, text)
	if err != nil {
		return Document{}, errors.NewInternalError(errors.ErrCodeRenderFailed, "failed to render resume PDF", err).
			WithContext("template", string(t))
	}

	s.logger.Debug("Rendered resume document", "template", t, "bytes", len(data), "characters", len(text))
	return Document{
		Text:        text,
		Bytes:       data,
		Template:    t,
		Filename:    t.Filename(),
		ContentType: ContentTypePDF,
	}, nil
}
