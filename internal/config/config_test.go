package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaultsWithoutFiles(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Kotlin.PadShortIDs)
	assert.Empty(t, cfg.Path)
	assert.True(t, cfg.WantsLanguage("java"))
	assert.True(t, cfg.WantsLanguage("kotlin"))
}

func TestLoadMergesTomlAndIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
languages = ["kt", "java", "kotlin"]
ignore = ["generated/"]
markers = [" com.acme.Wire "]

[kotlin]
pad_short_ids = false
`)
	writeFile(t, dir, IgnoreFile, "# comment\n\nbuild-cache/\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"java", "kotlin"}, cfg.Languages)
	assert.Equal(t, []string{"generated/", "build-cache/"}, cfg.Ignore)
	assert.Equal(t, []string{"com.acme.Wire"}, cfg.Markers)
	assert.False(t, cfg.Kotlin.PadShortIDs)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Path)
}

func TestLoadFileRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "syntax", content: "languages = [", want: "failed to parse TOML"},
		{name: "unknown key", content: "colour = true\n", want: "unknown keys: colour"},
		{name: "language", content: `languages = ["scala"]`, want: `unsupported language "scala"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tt.content)
			_, err := LoadFile(filepath.Join(dir, FileName))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWantsLanguageRespectsFilter(t *testing.T) {
	cfg := Config{Languages: []string{"kotlin"}}
	assert.True(t, cfg.WantsLanguage("kotlin"))
	assert.False(t, cfg.WantsLanguage("java"))
}
