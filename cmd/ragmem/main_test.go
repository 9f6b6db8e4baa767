package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/ragmem/internal/models"
)

func newTestCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	pf := cmd.Flags()
	pf.StringVar(&flags.configPath, "config", "", "")
	pf.StringVar(&flags.logLevel, "log-level", "", "")
	pf.StringVar(&flags.provider, "provider", "", "")
	pf.StringVar(&flags.model, "model", "", "")
	pf.StringVar(&flags.embedModel, "embed-model", "", "")
	pf.StringVar(&flags.baseURL, "base-url", "", "")
	pf.IntVar(&flags.chunkSize, "chunk-size", 0, "")
	pf.IntVar(&flags.topK, "top-k", 0, "")
	pf.IntVar(&flags.maxDepth, "max-depth", 1, "")
	return cmd
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("OPENAI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("processor:\n  chunk_size: 500\nui:\n  color: never\n"), 0644))

	var flags rootFlags
	cmd := newTestCmd(&flags)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--top-k", "7", "--model", "llama3", "--max-depth", "0"}))

	cfg, err := loadConfig(cmd, &flags)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Processor.ChunkSize)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 0, cfg.Scraper.MaxDepthValue())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	var flags rootFlags
	cmd := newTestCmd(&flags)
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
	_, err := loadConfig(cmd, &flags)
	assert.Error(t, err)

	cmd = newTestCmd(&flags)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  color: never\n"), 0644))
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--provider", "bedrock"}))
	_, err = loadConfig(cmd, &flags)
	assert.Error(t, err)
}

func TestJoinPages(t *testing.T) {
	got := joinPages([]models.Page{{Content: "one"}, {Content: " "}, {Content: "two"}})
	assert.Equal(t, "one\n\ntwo", got)
}

func TestChunkCount(t *testing.T) {
	tests := []struct {
		name string
		size int
		text string
		want int
	}{
		{"empty", 5, "", 0},
		{"exact", 5, "aaaaabbbbb", 2},
		{"multibyte", 2, "héllo", 3},
		{"invalid utf8 bytes count singly", 2, "a\xff\xfeb", 2},
		{"invalid utf8 run", 1, "\xff\xfe\xfd", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkCount(tt.size, tt.text))
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n\n b", 10))
	assert.Equal(t, "héllo…", preview("héllo world", 5))
}
