package common

import (
	"fmt"
	"slices"

	"resumecoach/internal/session"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ResolveOutputFormat applies the configured default to an empty format
// and validates the result.
func ResolveOutputFormat(format, defaultFormat string, supportedFormats []string) (string, error) {
	if format == "" {
		format = defaultFormat
	}
	if err := ValidateOutputFormat(format, supportedFormats); err != nil {
		return "", err
	}
	return format, nil
}

// TemplateNames returns the template names for flag completion.
func TemplateNames() []string {
	names := make([]string, 0, len(session.Templates()))
	for _, t := range session.Templates() {
		names = append(names, string(t))
	}
	return names
}
