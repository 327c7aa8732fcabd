package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{"source": "doc.md", "num_slides": 12, "language": "zh", "error_exit": true}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "doc.md", cfg.Source)
	assert.Equal(t, 12, cfg.NumSlides)
	assert.Equal(t, "zh", cfg.Language)
	assert.True(t, cfg.ErrorExit)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "config path is empty")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeConfig(t, `{not json`))
	assert.ErrorContains(t, err, "failed to parse config JSON")
}

func TestValidate(t *testing.T) {
	source := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(source, []byte("# x"), 0o644))

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Source: source, NumSlides: 10}},
		{name: "valid url source", cfg: Config{SourceURL: "https://example.com/report"}},
		{
			name:    "source and url are exclusive",
			cfg:     Config{Source: source, SourceURL: "https://example.com"},
			wantErr: "mutually exclusive",
		},
		{
			name:    "malformed url",
			cfg:     Config{SourceURL: "not a url"},
			wantErr: "config error",
		},
		{
			name:    "missing source file",
			cfg:     Config{Source: filepath.Join(t.TempDir(), "absent.md")},
			wantErr: "file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("DECK_AGENT_MAX_AT_ONCE", "4")

	cfg := &Config{}
	cfg.LoadEnv()
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, 4, cfg.MaxAtOnce)

	// Explicit values win over the environment.
	cfg = &Config{APIKey: "flag-key", MaxAtOnce: 2}
	cfg.LoadEnv()
	assert.Equal(t, "flag-key", cfg.APIKey)
	assert.Equal(t, 2, cfg.MaxAtOnce)
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Source: "cli.md", NumSlides: 5}
	defaults := Config{Source: "file.md", Language: "en", NumSlides: 10, MaxAtOnce: 3}

	merged := cfg.MergeWithDefaults(defaults)
	assert.Equal(t, "cli.md", merged.Source)
	assert.Equal(t, 5, merged.NumSlides)
	assert.Equal(t, "en", merged.Language)
	assert.Equal(t, 3, merged.MaxAtOnce)
}
