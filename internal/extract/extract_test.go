package extract

import (
	"archive/zip"
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumecoach/internal/errors"
)

const resumeText = "Jane Doe\nSenior Software Engineer\nBuilt payment services in Go handling 2M requests per day."

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeOCR struct {
	text     string
	err      error
	mimeType string
}

func (f *fakeOCR) ExtractImageText(_ context.Context, _ []byte, mimeType string) (string, error) {
	f.mimeType = mimeType
	return f.text, f.err
}

func defaultOptions() Options {
	return Options{
		MaxFileSize:       1024 * 1024,
		MinTextLength:     50,
		AllowedExtensions: []string{".pdf", ".docx", ".jpg", ".jpeg", ".png", ".txt", ".md"},
	}
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildPDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	e := New(defaultOptions(), nil, errors.Discard())

	text, err := e.Extract(context.Background(), Upload{Filename: "resume.txt", Data: []byte("\xef\xbb\xbf" + resumeText + "\r\n")})
	require.NoError(t, err)
	assert.Equal(t, resumeText, text)

	text, err = e.Extract(context.Background(), Upload{Filename: "upload", ContentType: "text/markdown; charset=utf-8", Data: []byte(resumeText)})
	require.NoError(t, err)
	assert.Equal(t, resumeText, text)

	_, err = e.Extract(context.Background(), Upload{Filename: "resume.txt", Data: []byte("\xff\xfe" + resumeText)})
	assert.True(t, errors.HasCode(err, errors.ErrCodeExtractionFailed))
}

func TestExtractDOCX(t *testing.T) {
	e := New(defaultOptions(), nil, errors.Discard())
	data := buildDOCX(t, `<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t xml:space="preserve">Senior Software </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Go</w:t><w:tab/><w:t>Kubernetes</w:t><w:br/><w:t>Built payment services handling 2M requests per day.</w:t></w:r></w:p>`)

	text, err := e.Extract(context.Background(), Upload{Filename: "Resume.DOCX", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Software Engineer\nGo\tKubernetes\nBuilt payment services handling 2M requests per day.", text)

	_, err = e.Extract(context.Background(), Upload{Filename: "resume.docx", Data: []byte("PK\x03\x04 broken archive")})
	assert.True(t, errors.HasCode(err, errors.ErrCodeExtractionFailed))
}

func TestExtractPDF(t *testing.T) {
	e := New(Options{MaxFileSize: 1 << 20, MinTextLength: 10}, nil, errors.Discard())
	data := buildPDF(t, "Jane Doe", "Senior Software Engineer")

	text, err := e.Extract(context.Background(), Upload{Filename: "resume.pdf", Data: data})
	require.NoError(t, err)
	assert.Contains(t, text, "Jane")
	assert.Contains(t, text, "Engineer")

	_, err = e.Extract(context.Background(), Upload{Filename: "resume.pdf", Data: []byte("%PDF-1.4 garbage")})
	assert.True(t, errors.HasCode(err, errors.ErrCodeExtractionFailed))
}

func TestExtractImage(t *testing.T) {
	ocr := &fakeOCR{text: resumeText}
	e := New(defaultOptions(), ocr, errors.Discard())

	text, err := e.Extract(context.Background(), Upload{Filename: "scan.png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, resumeText, text)
	assert.Equal(t, "image/png", ocr.mimeType)

	engineErr := errors.NewAIError(errors.ErrCodeAIServiceFailed, "quota exceeded", nil)
	ocr.err = engineErr
	_, err = e.Extract(context.Background(), Upload{Filename: "scan.png", Data: pngHeader})
	assert.True(t, stderrors.Is(err, engineErr))
	assert.Equal(t, 502, errors.HTTPStatus(err))

	_, err = New(defaultOptions(), nil, errors.Discard()).Extract(context.Background(), Upload{Filename: "scan.png", Data: pngHeader})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedFileType))
}

func TestExtractRejections(t *testing.T) {
	e := New(Options{MaxFileSize: 200, MinTextLength: 50, AllowedExtensions: []string{".txt", ".pdf"}}, nil, errors.Discard())

	tests := []struct {
		name   string
		upload Upload
		code   string
		status int
	}{
		{name: "too large", upload: Upload{Filename: "a.txt", Data: []byte(strings.Repeat("x", 201))}, code: errors.ErrCodeFileTooLarge, status: 413},
		{name: "empty", upload: Upload{Filename: "a.txt"}, code: errors.ErrCodeExtractionFailed, status: 400},
		{name: "disallowed extension", upload: Upload{Filename: "a.md", Data: []byte(resumeText)}, code: errors.ErrCodeUnsupportedFileType, status: 415},
		{name: "unknown extension", upload: Upload{Filename: "a.exe", Data: []byte("MZ")}, code: errors.ErrCodeUnsupportedFileType, status: 415},
		{name: "pdf extension without pdf content", upload: Upload{Filename: "a.pdf", Data: []byte(resumeText)}, code: errors.ErrCodeUnsupportedFileType, status: 415},
		{name: "too little text", upload: Upload{Filename: "a.txt", Data: []byte("Jane Doe\n   \n Engineer")}, code: errors.ErrCodeInsufficientText, status: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tt.upload)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, tt.status, errors.HTTPStatus(err))
		})
	}
}

func TestMinimumTextLengthCountsTrimmedCharacters(t *testing.T) {
	e := New(Options{MinTextLength: 10}, nil, errors.Discard())

	// Inner spaces count, surrounding whitespace does not.
	text, err := e.Extract(context.Background(), Upload{Filename: "a.txt", Data: []byte("\n\n  a b c d éf  \n\n")})
	require.NoError(t, err)
	assert.Equal(t, "a b c d éf", text)

	_, err = e.Extract(context.Background(), Upload{Filename: "a.txt", Data: []byte("   a b c d   ")})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInsufficientText))
}
