package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "server:\n  port: \"9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "new", cfg.Feedback.DefaultStatus)
	assert.True(t, cfg.Feedback.CommentsEnabled())
	assert.True(t, cfg.Feedback.BugsEnabled())
	assert.True(t, cfg.Upload.IsEnabled())
	assert.Equal(t, 25, cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileExplicitFlags(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
feedback:
  enable_bugs: false
  default_status: in_progress
upload:
  enabled: false
database:
  driver: SQLite
`))
	require.NoError(t, err)

	assert.False(t, cfg.Feedback.BugsEnabled())
	assert.True(t, cfg.Feedback.CommentsEnabled())
	assert.False(t, cfg.Upload.IsEnabled())
	assert.Equal(t, "in_progress", cfg.Feedback.DefaultStatus)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FEEDBACK_JWT_SECRET", "from-env")
	t.Setenv("FEEDBACK_DB_PASSWORD", "s3cret")
	t.Setenv("FEEDBACK_UPLOAD_MAX_MB", "12")

	cfg, err := LoadFile(writeConfig(t, "jwt:\n  secret: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 12, cfg.Upload.MaxFileSizeMB)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
