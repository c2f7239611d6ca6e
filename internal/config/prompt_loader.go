package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Prompt override names, one per workflow transition.
const (
	PromptInitialAnalysis = "initialAnalysis"
	PromptChatStart       = "chatStart"
	PromptChatTurn        = "chatTurn"
	PromptInterviewStart  = "interviewStart"
	PromptInterviewTurn   = "interviewTurn"
	PromptSynthesis       = "synthesis"
)

// PromptOverride replaces a built-in prompt template. File wins over the
// inline template when both are set.
type PromptOverride struct {
	Template string `mapstructure:"template"`
	File     string `mapstructure:"file"`
}

// PromptTemplates holds the operator overrides for every transition prompt.
type PromptTemplates struct {
	InitialAnalysis PromptOverride `mapstructure:"initialAnalysis"`
	ChatStart       PromptOverride `mapstructure:"chatStart"`
	ChatTurn        PromptOverride `mapstructure:"chatTurn"`
	InterviewStart  PromptOverride `mapstructure:"interviewStart"`
	InterviewTurn   PromptOverride `mapstructure:"interviewTurn"`
	Synthesis       PromptOverride `mapstructure:"synthesis"`
}

type namedPrompt struct {
	name     string
	override PromptOverride
}

func (p PromptTemplates) named() []namedPrompt {
	return []namedPrompt{
		{PromptInitialAnalysis, p.InitialAnalysis},
		{PromptChatStart, p.ChatStart},
		{PromptChatTurn, p.ChatTurn},
		{PromptInterviewStart, p.InterviewStart},
		{PromptInterviewTurn, p.InterviewTurn},
		{PromptSynthesis, p.Synthesis},
	}
}

// LoadPromptOverrides resolves every configured override to its template
// text, reading files from disk. Prompts without an override are absent
// from the map.
func (c *Config) LoadPromptOverrides() (map[string]string, error) {
	overrides := make(map[string]string)

	for _, p := range c.AI.Prompts.named() {
		switch {
		case p.override.File != "":
			content, err := loadPromptFromFile(p.override.File, p.name)
			if err != nil {
				return nil, err
			}
			overrides[p.name] = content
		case strings.TrimSpace(p.override.Template) != "":
			overrides[p.name] = p.override.Template
		}
	}

	if len(overrides) == 0 {
		log.Println("[CONFIG] No custom prompts configured - using built-in templates")
	} else {
		log.Printf("[CONFIG] Custom prompt templates loaded: %d", len(overrides))
	}

	return overrides, nil
}

// PromptFiles returns the absolute paths of every configured prompt file.
func (c *Config) PromptFiles() []string {
	var files []string
	for _, p := range c.AI.Prompts.named() {
		if p.override.File == "" {
			continue
		}
		if abs, err := filepath.Abs(p.override.File); err == nil {
			files = append(files, abs)
		}
	}
	return files
}

// loadPromptFromFile reads and trims a prompt file, rejecting empty files
func loadPromptFromFile(filePath, name string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", name, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s prompt file not found: %s", name, absPath)
		}
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", name, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", name, absPath)
	}

	log.Printf("[CONFIG] Loaded %s prompt from file: %s (%d characters)", name, absPath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles checks that every configured prompt file exists
func (c *Config) validatePromptFiles() error {
	var problems []string

	for _, p := range c.AI.Prompts.named() {
		if p.override.File == "" {
			continue
		}
		absPath, err := filepath.Abs(p.override.File)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid path for %s prompt: %s", p.name, p.override.File))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("%s prompt file not found: %s", p.name, absPath))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "\n"))
	}
	return nil
}
