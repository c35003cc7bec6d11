package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cantalupo555/disclosure-report-downloader/internal/runner"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	code := runner.ExitOK
	cmd := newRootCommand(&buf, &code)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "reportdl version dev\n", buf.String())
	assert.Equal(t, runner.ExitOK, code)
}

func TestExecute_InvalidConfiguration(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown mode", []string{"--mode", "crawl"}, "unknown mode"},
		{"search without code", []string{"--mode", "search"}, "search_code"},
		{"bad url", []string{"--url", "ftp://portal.example.com"}, "target_url"},
		{"date filter without date cell", []string{"--from", "2024-01-01"}, "date_cell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := execute(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, runner.ExitError, code)
		})
	}
}

func TestExecute_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	code, err := execute(context.Background(), []string{"--config", "nope.yaml"})
	require.Error(t, err)
	assert.Equal(t, runner.ExitError, code)
}
