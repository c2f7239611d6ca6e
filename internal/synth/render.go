package synth

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"resumecoach/internal/config"
	"resumecoach/internal/errors"
)

// Renderer turns normalized resume text into a PDF.
type Renderer interface {
	Render(ctx context.Context, text string) ([]byte, error)
}

// documentEpoch is stamped into every PDF so identical text renders to
// identical bytes.
var documentEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// FPDFRenderer lays text out on A4 pages with a single core font. Core
// fonts only cover cp1252, which is why text is normalized first.
type FPDFRenderer struct {
	FontFamily string
	FontSize   float64
	LineHeight float64
}

// NewFPDFRenderer creates a renderer from the render config, filling in
// Arial 10pt with 5mm lines where unset.
func NewFPDFRenderer(cfg config.RenderConfig) *FPDFRenderer {
	r := &FPDFRenderer{FontFamily: cfg.FontFamily, FontSize: cfg.FontSize, LineHeight: cfg.LineHeight}
	if r.FontFamily == "" {
		r.FontFamily = "Arial"
	}
	if r.FontSize <= 0 {
		r.FontSize = 10
	}
	if r.LineHeight <= 0 {
		r.LineHeight = 5
	}
	return r
}

// Render implements Renderer.
func (r *FPDFRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(documentEpoch)
	pdf.SetModificationDate(documentEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("resumecoach", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont(r.FontFamily, "", r.FontSize)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			pdf.Ln(r.LineHeight)
			continue
		}
		pdf.MultiCell(0, r.LineHeight, tr(strings.ReplaceAll(paragraph, "\t", "    ")), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("fpdf output failed: %w", err)
	}
	return buf.Bytes(), nil
}

// NewRenderer builds the renderer selected by cfg.Engine. The returned
// close function releases browser resources and is never nil.
func NewRenderer(cfg config.RenderConfig, logger *errors.Logger) (Renderer, func() error, error) {
	switch cfg.Engine {
	case "", "fpdf":
		return NewFPDFRenderer(cfg), func() error { return nil }, nil
	case "chromium":
		r := NewChromiumRenderer(cfg, logger)
		return r, r.Close, nil
	default:
		return nil, nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown render engine %q", cfg.Engine), nil)
	}
}
