package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadKind(t *testing.T) {
	allowed := []string{".pdf", ".docx", ".txt"}

	tests := []struct {
		name     string
		ext      string
		allowed  []string
		expected FileKind
		ok       bool
	}{
		{name: "pdf", ext: ".pdf", allowed: allowed, expected: FileKindPDF, ok: true},
		{name: "upper case", ext: ".DOCX", allowed: allowed, expected: FileKindDOCX, ok: true},
		{name: "known but not allowed", ext: ".png", allowed: allowed, expected: FileKindImage},
		{name: "any known without list", ext: ".jpeg", expected: FileKindImage, ok: true},
		{name: "markdown without list", ext: ".markdown", expected: FileKindText, ok: true},
		{name: "unknown", ext: ".exe"},
		{name: "empty", ext: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := UploadKind(tt.ext, tt.allowed)
			assert.Equal(t, tt.expected, kind)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, FileKindText, KindOf("notes/resume.MD"))
	assert.Equal(t, FileKindPDF, KindOf("cv.pdf"))
	assert.Equal(t, FileKind(""), KindOf("archive.tar.gz"))
	assert.Equal(t, FileKind(""), KindOf("README"))
}

func TestExtensionForContentType(t *testing.T) {
	assert.Equal(t, ".txt", ExtensionForContentType("text/plain; charset=utf-8"))
	assert.Equal(t, ".pdf", ExtensionForContentType("Application/PDF"))
	assert.Equal(t, ".png", ExtensionForContentType(" image/png "))
	assert.Empty(t, ExtensionForContentType("application/octet-stream"))
	assert.Empty(t, ExtensionForContentType(""))
}

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(file, []byte("text"), 0600))

	assert.NoError(t, ValidateInputFile(file))
	assert.ErrorContains(t, ValidateInputFile(""), "cannot be empty")
	assert.ErrorContains(t, ValidateInputFile(filepath.Join(dir, "missing.txt")), "does not exist")
	assert.ErrorContains(t, ValidateInputFile(dir), "is a directory")
}

func TestValidateOutputFile(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "resume.pdf")

	require.NoError(t, ValidateOutputFile(nested))
	info, err := os.Stat(filepath.Dir(nested))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, ValidateOutputFile(""))
	assert.NoError(t, ValidateOutputFile("resume.pdf"))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "10.0 MB", FormatFileSize(10*1024*1024))
}
