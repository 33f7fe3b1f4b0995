package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.HomeDir)
	assert.Equal(t, filepath.Join(cfg.HomeDir, ".gsh_history"), cfg.HistoryFile)
	assert.Equal(t, "gsh> ", cfg.Prompt)
	assert.Equal(t, 1<<16, cfg.MaxJobs)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := "history_file: /tmp/hist\nprompt: '$ '\nmax_jobs: 64\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/hist", cfg.HistoryFile)
	assert.Equal(t, "$ ", cfg.Prompt)
	assert.Equal(t, 64, cfg.MaxJobs)
}

func TestLoadBadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("prompt: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
