package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumecoach/internal/errors"
	"resumecoach/internal/extract"
	"resumecoach/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger  *errors.Logger
	allowed []string
}

// NewFileProcessor creates a new file processor instance. Input files with
// an extension outside allowed are read anyway but logged; the extractor
// makes the final call.
func NewFileProcessor(logger *errors.Logger, allowed ...string) *FileProcessor {
	return &FileProcessor{logger: logger, allowed: allowed}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, content, 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ReadUploads validates and reads input files as extractor uploads. The
// content type is left empty so the extractor detects it from the name
// and the bytes.
func (fp *FileProcessor) ReadUploads(filenames ...string) ([]extract.Upload, error) {
	uploads := make([]extract.Upload, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		ext := utils.GetFileExtension(filename)
		if _, ok := utils.UploadKind(ext, fp.allowed); !ok {
			if fp.logger != nil {
				fp.logger.Warn("File extension is not an accepted resume format",
					"filename", filename, "extension", ext)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: %s has an unexpected extension\n", filename)
			}
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err // Error already wrapped by ReadFile
		}

		uploads[i] = extract.Upload{Filename: filepath.Base(filename), Data: content}
	}

	return uploads, nil
}

// ReadText reads a plain text file, used for job descriptions and for
// resume text handed to the renderer.
func (fp *FileProcessor) ReadText(filename string) (string, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return "", errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	if utils.KindOf(filename) != utils.FileKindText && fp.logger != nil {
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}
	content, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
