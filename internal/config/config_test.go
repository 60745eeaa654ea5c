package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  in_memory: true
jwt:
  secret: file-secret
barcode:
  fetch_timeout: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(64), cfg.Server.MaxUploadMB)
	assert.Equal(t, "event/", cfg.AWS.EventImageDir)
	assert.Equal(t, "day/", cfg.AWS.DayImageDir)
	assert.Equal(t, "barcode/", cfg.AWS.BarcodeDir)
	assert.Equal(t, 8, cfg.Barcode.StripWidth)
	assert.Equal(t, 400, cfg.Barcode.Height)
	assert.Equal(t, 3*time.Second, cfg.Barcode.FetchTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.APNs.Enabled())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 5433
  user: journal
  password: from-file
  dbname: journal
aws:
  s3_bucket: photos
jwt:
  secret: file-secret
log:
  level: debug
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DB_PASSWORD", "env-password")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-password", cfg.Database.Password)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "host=db.internal port=5433 user=journal password=env-password dbname=journal sslmode=disable", cfg.Database.DSN())
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name     string
		contents string
	}{
		{
			name: "missing jwt secret",
			contents: `
database:
  in_memory: true
`,
		},
		{
			name: "missing bucket",
			contents: `
database:
  host: localhost
  dbname: journal
jwt:
  secret: s
`,
		},
		{
			name: "missing database",
			contents: `
aws:
  s3_bucket: photos
jwt:
  secret: s
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.contents))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yaml", Path())

	t.Setenv("CONFIG_PATH", "/etc/journal.yaml")
	assert.Equal(t, "/etc/journal.yaml", Path())
}
