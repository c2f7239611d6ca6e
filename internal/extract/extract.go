// Package extract pulls plain text out of uploaded resume files.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"resumecoach/internal/config"
	"resumecoach/internal/errors"
	"resumecoach/internal/utils"
)

// Kind is the detected format of an upload.
type Kind = utils.FileKind

const (
	KindText  = utils.FileKindText
	KindPDF   = utils.FileKindPDF
	KindDOCX  = utils.FileKindDOCX
	KindImage = utils.FileKindImage
)

// OCR reads the text printed in an image. The reasoning engine's
// multimodal call implements it.
type OCR interface {
	ExtractImageText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Options bounds what the extractor accepts.
type Options struct {
	MaxFileSize       int64
	MinTextLength     int
	AllowedExtensions []string
}

// OptionsFromConfig reads the limits from the app config.
func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		MaxFileSize:       cfg.MaxFileSize,
		MinTextLength:     cfg.MinTextLength,
		AllowedExtensions: cfg.AllowedExtensions,
	}
}

// Extractor detects an upload's format and extracts its text.
type Extractor struct {
	opts   Options
	ocr    OCR
	logger *errors.Logger
}

// New creates an extractor. ocr may be nil, in which case images are
// rejected as unsupported.
func New(opts Options, ocr OCR, logger *errors.Logger) *Extractor {
	return &Extractor{opts: opts, ocr: ocr, logger: logger}
}

// Extract returns the text of upload. It fails with a validation error when
// the file is too large, of an unsupported type, unreadable, or yields too
// little text to analyze.
func (e *Extractor) Extract(ctx context.Context, upload Upload) (string, error) {
	size := int64(len(upload.Data))
	if e.opts.MaxFileSize > 0 && size > e.opts.MaxFileSize {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file is %s, the limit is %s", utils.FormatFileSize(size), utils.FormatFileSize(e.opts.MaxFileSize)), nil).
			WithContext("filename", upload.Filename)
	}
	if size == 0 {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed, "file is empty", nil).
			WithContext("filename", upload.Filename)
	}

	kind, mimeType, err := e.Detect(upload)
	if err != nil {
		return "", err
	}

	var text string
	switch kind {
	case KindText:
		text, err = extractText(upload.Data)
	case KindPDF:
		text, err = extractPDF(upload.Data)
	case KindDOCX:
		text, err = extractDOCX(upload.Data)
	case KindImage:
		text, err = e.ocr.ExtractImageText(ctx, upload.Data, mimeType)
		if err != nil {
			// Engine failures keep their own type so clients know to retry.
			return "", err
		}
	}
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed,
			fmt.Sprintf("could not read %s file", kind), err).
			WithContext("filename", upload.Filename)
	}

	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < e.opts.MinTextLength {
		return "", errors.NewValidationError(errors.ErrCodeInsufficientText,
			fmt.Sprintf("only %d characters of text found, at least %d are needed", n, e.opts.MinTextLength), nil).
			WithContext("filename", upload.Filename).
			WithContext("kind", string(kind))
	}

	e.logger.Debug("Extracted resume text", "filename", upload.Filename, "kind", kind, "bytes", size, "characters", len(text))
	return text, nil
}

// Detect decides the upload's kind from its extension, checked against the
// allowed list and the file's leading bytes.
func (e *Extractor) Detect(upload Upload) (Kind, string, error) {
	ext := utils.GetFileExtension(upload.Filename)
	if ext == "" {
		ext = utils.ExtensionForContentType(upload.ContentType)
	}
	kind, ok := utils.UploadKind(ext, e.opts.AllowedExtensions)
	if !ok {
		return "", "", unsupported(upload, ext)
	}

	switch kind {
	case KindText:
		return KindText, "text/plain", nil
	case KindPDF:
		if !bytes.HasPrefix(upload.Data, []byte("%PDF-")) {
			return "", "", mismatch(upload, ext)
		}
		return KindPDF, "application/pdf", nil
	case KindDOCX:
		if !bytes.HasPrefix(upload.Data, []byte("PK\x03\x04")) {
			return "", "", mismatch(upload, ext)
		}
		return KindDOCX, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil
	case KindImage:
		sniffed := http.DetectContentType(upload.Data)
		if sniffed != "image/jpeg" && sniffed != "image/png" {
			return "", "", mismatch(upload, ext)
		}
		if e.ocr == nil {
			return "", "", unsupported(upload, ext)
		}
		return KindImage, sniffed, nil
	}
	return "", "", unsupported(upload, ext)
}

func unsupported(upload Upload, ext string) error {
	return errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
		fmt.Sprintf("unsupported file type %q", ext), nil).
		WithContext("filename", upload.Filename)
}

func mismatch(upload Upload, ext string) error {
	return errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
		fmt.Sprintf("file content does not match its %s extension", ext), nil).
		WithContext("filename", upload.Filename)
}

func extractText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text is not valid UTF-8")
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}
