package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumecoach/internal/errors"
)

func TestLoadPromptOverrides(t *testing.T) {
	tempDir := t.TempDir()
	chatFile := filepath.Join(tempDir, "chat_turn.tmpl")
	require.NoError(t, os.WriteFile(chatFile, []byte("\n  Reply to {{.Latest}}  \n"), 0600))

	cfg := &Config{AI: AIConfig{Prompts: PromptTemplates{
		ChatTurn:  PromptOverride{File: chatFile, Template: "ignored because the file wins"},
		ChatStart: PromptOverride{Template: "Hello {{.Analysis}}"},
		Synthesis: PromptOverride{Template: "   "},
	}}}

	overrides, err := cfg.LoadPromptOverrides()
	require.NoError(t, err)

	assert.Equal(t, "Reply to {{.Latest}}", overrides[PromptChatTurn])
	assert.Equal(t, "Hello {{.Analysis}}", overrides[PromptChatStart])
	assert.NotContains(t, overrides, PromptSynthesis)
	assert.Len(t, overrides, 2)

	absChat, err := filepath.Abs(chatFile)
	require.NoError(t, err)
	assert.Equal(t, []string{absChat}, cfg.PromptFiles())
}

func TestLoadPromptFromFileErrors(t *testing.T) {
	tempDir := t.TempDir()

	_, err := loadPromptFromFile(filepath.Join(tempDir, "missing.tmpl"), PromptChatTurn)
	assert.ErrorContains(t, err, "prompt file not found")

	empty := filepath.Join(tempDir, "empty.tmpl")
	require.NoError(t, os.WriteFile(empty, []byte("  \n\t"), 0600))
	_, err = loadPromptFromFile(empty, PromptChatTurn)
	assert.ErrorContains(t, err, "is empty")
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	existing := filepath.Join(tempDir, "analysis.tmpl")
	require.NoError(t, os.WriteFile(existing, []byte("analyze"), 0600))

	cfg := &Config{AI: AIConfig{Prompts: PromptTemplates{InitialAnalysis: PromptOverride{File: existing}}}}
	assert.NoError(t, cfg.validatePromptFiles())

	cfg.AI.Prompts.InterviewTurn = PromptOverride{File: filepath.Join(tempDir, "nope.tmpl")}
	err := cfg.validatePromptFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interviewTurn prompt file not found")
}

func TestPromptWatcherNilWithoutFiles(t *testing.T) {
	assert.Nil(t, NewPromptWatcher(&Config{}, time.Millisecond, func(map[string]string) {}, errors.Discard()))
}

func TestPromptWatcherReloadsOnWrite(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "chat_start.tmpl")
	require.NoError(t, os.WriteFile(file, []byte("first"), 0600))

	cfg := &Config{AI: AIConfig{Prompts: PromptTemplates{ChatStart: PromptOverride{File: file}}}}

	var (
		mu   sync.Mutex
		seen []string
	)
	watcher := NewPromptWatcher(cfg, 20*time.Millisecond, func(overrides map[string]string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, overrides[PromptChatStart])
	}, errors.Discard())
	require.NotNil(t, watcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher time to register before writing, and make sure the
	// modification time moves forward on coarse filesystems.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("second"), 0600))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(file, future, future))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == "second"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
