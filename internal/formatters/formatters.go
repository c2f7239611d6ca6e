package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"resumecoach/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("yaml", "any", &YAMLFormatter{})
	registry.RegisterFormatter("text", "AnalysisReport", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisReport", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "TemplateList", &TemplatesTextFormatter{})
	registry.RegisterFormatter("markdown", "TemplateList", &TemplatesMarkdownFormatter{})
	registry.RegisterFormatter("text", "RenderReport", &RenderTextFormatter{})
	registry.RegisterFormatter("markdown", "RenderReport", &RenderTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisReport:
		return "AnalysisReport"
	case types.TemplateList:
		return "TemplateList"
	case types.RenderReport:
		return "RenderReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter handles text formatting for analysis reports
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Source: %s\n", result.Source))
	output.WriteString(fmt.Sprintf("Mode: %s\n", result.Mode))
	if result.HasScore {
		output.WriteString(fmt.Sprintf("ATS Score: %d/100\n", result.ATSScore))
	}
	output.WriteString(fmt.Sprintf("Weaknesses to address: %d\n\n", result.TotalWeaknesses))

	output.WriteString("=== SUMMARY ===\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisReport"
}

// AnalysisMarkdownFormatter handles markdown formatting for analysis reports
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Source:** %s  \n", result.Source))
	output.WriteString(fmt.Sprintf("**Mode:** %s  \n", result.Mode))
	if result.HasScore {
		output.WriteString(fmt.Sprintf("**ATS Score:** %d/100  \n", result.ATSScore))
	}
	output.WriteString(fmt.Sprintf("**Weaknesses to address:** %d\n\n", result.TotalWeaknesses))

	output.WriteString("## Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisReport"
}

// TemplatesTextFormatter lists templates one per line, with skeletons when present
type TemplatesTextFormatter struct{}

func (ttf *TemplatesTextFormatter) Format(data any) (string, error) {
	list, ok := data.(types.TemplateList)
	if !ok {
		return "", fmt.Errorf("expected TemplateList, got %T", data)
	}

	var output strings.Builder
	for _, t := range list.Templates {
		output.WriteString(fmt.Sprintf("%-14s %s\n", t.Name, t.Label))
		if t.Skeleton != "" {
			output.WriteString("\n")
			output.WriteString(t.Skeleton)
			output.WriteString("\n\n")
		}
	}
	return output.String(), nil
}

func (ttf *TemplatesTextFormatter) SupportedType() string {
	return "TemplateList"
}

// TemplatesMarkdownFormatter handles markdown formatting for the template catalogue
type TemplatesMarkdownFormatter struct{}

func (tmf *TemplatesMarkdownFormatter) Format(data any) (string, error) {
	list, ok := data.(types.TemplateList)
	if !ok {
		return "", fmt.Errorf("expected TemplateList, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resume Templates\n\n")
	for _, t := range list.Templates {
		output.WriteString(fmt.Sprintf("## %s (`%s`)\n\n", t.Label, t.Name))
		if t.Skeleton != "" {
			output.WriteString("```\n")
			output.WriteString(t.Skeleton)
			output.WriteString("\n```\n\n")
		}
	}
	return output.String(), nil
}

func (tmf *TemplatesMarkdownFormatter) SupportedType() string {
	return "TemplateList"
}

// RenderTextFormatter reports where a document was written
type RenderTextFormatter struct{}

func (rtf *RenderTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.RenderReport)
	if !ok {
		return "", fmt.Errorf("expected RenderReport, got %T", data)
	}
	return fmt.Sprintf("Wrote %s (%s template, %d bytes)\n", report.Output, report.Template, report.Bytes), nil
}

func (rtf *RenderTextFormatter) SupportedType() string {
	return "RenderReport"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
