package synth

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumecoach/internal/config"
	"resumecoach/internal/errors"
	"resumecoach/internal/session"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "en dash date range", input: "Jan 2020 – Present", expected: "Jan 2020 - Present"},
		{name: "em dash", input: "Go—Rust", expected: "Go-Rust"},
		{name: "curly quotes", input: "“Increased” users’ retention", expected: `"Increased" users' retention`},
		{name: "bullets", input: "• Led team\n▪ Shipped", expected: "- Led team\n- Shipped"},
		{name: "ellipsis", input: "and more…", expected: "and more..."},
		{name: "nbsp", input: "10\u00a0000 users", expected: "10 000 users"},
		{name: "latin-1 accents kept", input: "Café Zürich", expected: "Café Zürich"},
		{name: "combining accent composed", input: "Cafe\u0301", expected: "Café"},
		{name: "accents outside latin-1 stripped", input: "Kraków, İstanbul, Łódź", expected: "Kraków, Istanbul, ?ódz"},
		{name: "unsupported script", input: "简历", expected: "??"},
		{name: "windows newlines", input: "a\r\nb\rc", expected: "a\nb\nc"},
		{name: "soft hyphen dropped", input: "data\u00adbase", expected: "database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Jane Doe\n[Start Date] – [End Date]\n• “Quoted” — done…",
		"Plain ASCII resume\twith tabs\nand lines.",
		"Ünïcödé ŝtrïng with 日本 and emoji 🚀",
		Skeleton(session.TemplateModern),
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}

	ascii := "Already fine: Senior Engineer | 2019 - 2024\n- Built things (40% faster)."
	assert.Equal(t, ascii, Normalize(ascii))
	latin := "Résumé of José Muñoz, Köln «Team» ·"
	assert.Equal(t, latin, Normalize(latin))
}

func TestNormalizeOutputIsEncodable(t *testing.T) {
	out := Normalize("Δelta “quotes” — 🚀 ŝ ǅ ﬁ")
	for _, r := range out {
		assert.True(t, encodable(r), "rune %q is not encodable", r)
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Jane Doe\nEXPERIENCE", CleanText("```text\nJane Doe\nEXPERIENCE\n```"))
	assert.Equal(t, "Jane Doe", CleanText("  Jane Doe  \n"))
	assert.Equal(t, "```\nonly opening", CleanText("```\nonly opening"))
}

func TestSkeletonsAndCatalog(t *testing.T) {
	assert.Contains(t, Skeleton(session.TemplateClassic), "PROFESSIONAL SUMMARY")
	assert.Contains(t, Skeleton(session.TemplateModern), "CORE COMPETENCIES")
	assert.Contains(t, Skeleton(session.TemplateSkillsFirst), "WORK HISTORY (Chronological)")
	assert.Equal(t, Skeleton(session.TemplateClassic), Skeleton("unknown"))

	catalog := Catalog(false)
	require.Len(t, catalog, 3)
	assert.Equal(t, session.TemplateClassic, catalog[0].Name)
	assert.Equal(t, "Classic (Single-Column)", catalog[0].Label)
	assert.Empty(t, catalog[0].Skeleton)
	assert.NotEmpty(t, Catalog(true)[2].Skeleton)
}

func TestFPDFRenderer(t *testing.T) {
	r := NewFPDFRenderer(config.RenderConfig{})
	assert.Equal(t, "Arial", r.FontFamily)
	assert.Equal(t, 10.0, r.FontSize)
	assert.Equal(t, 5.0, r.LineHeight)

	text := Normalize(Skeleton(session.TemplateClassic) + "\nJosé Muñoz\tCafé")
	first, err := r.Render(context.Background(), text)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))

	second, err := r.Render(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical text renders identical bytes")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, text)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRenderer(t *testing.T) {
	r, closeFn, err := NewRenderer(config.RenderConfig{Engine: "fpdf"}, errors.Discard())
	require.NoError(t, err)
	assert.IsType(t, &FPDFRenderer{}, r)
	assert.NoError(t, closeFn())

	r, closeFn, err = NewRenderer(config.RenderConfig{Engine: "chromium"}, errors.Discard())
	require.NoError(t, err)
	assert.IsType(t, &ChromiumRenderer{}, r)
	assert.NoError(t, closeFn(), "closing a browser that never started is a no-op")

	_, _, err = NewRenderer(config.RenderConfig{Engine: "latex"}, errors.Discard())
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func TestChromiumHTMLEscapesText(t *testing.T) {
	r := NewChromiumRenderer(config.RenderConfig{FontFamily: "Georgia", FontSize: 11}, errors.Discard())
	html, err := r.HTML("R&D <lead>")
	require.NoError(t, err)
	assert.Contains(t, html, "R&amp;D &lt;lead&gt;")
	assert.Contains(t, html, `font-family: "Georgia"`)
	assert.Contains(t, html, "font-size: 11pt")
}

type stubRenderer struct {
	got  string
	data []byte
	err  error
}

func (s *stubRenderer) Render(_ context.Context, text string) ([]byte, error) {
	s.got = text
	return s.data, s.err
}

func TestSynthesizerRender(t *testing.T) {
	stub := &stubRenderer{data: []byte("%PDF-stub")}
	s := New(stub, errors.Discard())

	doc, err := s.Render(context.Background(), "```\nJane Doe – Engineer\n```", session.TemplateModern)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe - Engineer", stub.got)
	assert.Equal(t, "Jane Doe - Engineer", doc.Text)
	assert.Equal(t, []byte("%PDF-stub"), doc.Bytes)
	assert.Equal(t, "improved_resume_modern.pdf", doc.Filename)
	assert.Equal(t, ContentTypePDF, doc.ContentType)
}

func TestSynthesizerRenderFailures(t *testing.T) {
	boom := stderrors.New("printer on fire")
	s := New(&stubRenderer{err: boom}, errors.Discard())

	doc, err := s.Render(context.Background(), "Jane Doe", session.TemplateClassic)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRenderFailed))
	assert.Empty(t, doc.Bytes)

	_, err = s.Render(context.Background(), "   ", session.TemplateClassic)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRenderFailed))
}
