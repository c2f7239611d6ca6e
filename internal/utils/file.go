package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileKind is the broad format of a resume file.
type FileKind string

const (
	FileKindText  FileKind = "text"
	FileKindPDF   FileKind = "pdf"
	FileKindDOCX  FileKind = "docx"
	FileKindImage FileKind = "image"
)

var kindByExtension = map[string]FileKind{
	".txt":      FileKindText,
	".text":     FileKindText,
	".md":       FileKindText,
	".markdown": FileKindText,
	".pdf":      FileKindPDF,
	".docx":     FileKindDOCX,
	".jpg":      FileKindImage,
	".jpeg":     FileKindImage,
	".png":      FileKindImage,
}

var extensionByContentType = map[string]string{
	"text/plain":      ".txt",
	"text/markdown":   ".md",
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ValidateInputFile checks that filename exists, is a regular file and can
// be opened.
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("file does not exist: %s", filename)
	case err != nil:
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	case info.IsDir():
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	return file.Close()
}

// ValidateOutputFile makes sure the directory of filename exists. An empty
// name means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// KindOf returns the kind implied by the extension of filename, or "" when
// the extension is not a resume format.
func KindOf(filename string) FileKind {
	return kindByExtension[GetFileExtension(filename)]
}

// UploadKind returns the kind of a resume file with extension ext. The
// second result is false when ext is unknown or, with a non-empty allowed
// list, not in it.
func UploadKind(ext string, allowed []string) (FileKind, bool) {
	ext = strings.ToLower(ext)
	kind, ok := kindByExtension[ext]
	if !ok {
		return "", false
	}
	if len(allowed) > 0 && !slices.Contains(allowed, ext) {
		return kind, false
	}
	return kind, true
}

// ExtensionForContentType maps a declared MIME type, parameters ignored, to
// the extension used for detection.
func ExtensionForContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return extensionByContentType[strings.ToLower(strings.TrimSpace(mediaType))]
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
