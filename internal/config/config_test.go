package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
storage:
  local_path: `+filepath.Join(t.TempDir(), "uploads")+`
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, OptionPolicyStrict, cfg.Survey.OptionPolicy)
	assert.Equal(t, "Asia/Taipei", cfg.Survey.Timezone)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout())
	assert.Equal(t, 5*time.Minute, cfg.Redis.SummaryTTL())
	assert.False(t, cfg.Database.Configured())
	assert.Equal(t, dir, cfg.Path)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
mail:
  enabled: true
storage:
  local_path: `+filepath.Join(t.TempDir(), "uploads")+`
`)
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("EMAIL_TO", "a@example.com,b@example.com")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_NAME", "cbme")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "re_test", cfg.Mail.APIKey)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.To)
	assert.True(t, cfg.Database.Configured())
}

func TestLoadConfig_RejectsUnknownPolicy(t *testing.T) {
	dir := writeConfig(t, `
survey:
  option_policy: sometimes
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "option_policy")
}

func TestLoadConfig_ShortSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: short
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
}

func TestLoadConfig_ReleaseRequiresSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
storage:
  local_path: `+filepath.Join(t.TempDir(), "uploads")+`
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", placeholderJWTSecret)
	_, err = LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")

	t.Setenv("JWT_SECRET", "a-real-deployment-secret-with-enough-length")
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "a-real-deployment-secret-with-enough-length", cfg.JWT.Secret)
}

func TestLoadConfig_ShippedConfigCarriesNoSecret(t *testing.T) {
	t.Setenv("SERVER_MODE", "release")
	t.Setenv("STORAGE_TYPE", "minio")

	_, err := LoadConfig(filepath.Join("..", "..", "configs"))
	require.Error(t, err)

	t.Setenv("SERVER_MODE", "debug")
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)
	assert.Empty(t, cfg.JWT.Secret)
}
