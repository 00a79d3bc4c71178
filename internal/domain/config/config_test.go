package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "blinders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 10*time.Minute, cfg.Deploy.StepTimeout)
	assert.Equal(t, 30*time.Second, cfg.Deploy.GracePeriod)
	assert.Equal(t, 1, cfg.Deploy.Concurrency)
	assert.Equal(t, 4096, cfg.Deploy.StdoutTailBytes)
	assert.Equal(t, "sh", cfg.Deploy.Shell)
	assert.Empty(t, cfg.Deploy.Registry)
	assert.True(t, cfg.AWS.CheckProfile)
	assert.True(t, cfg.History.Enabled)
	assert.Empty(t, cfg.File)

	assert.Equal(t, []string{"dev", "production", "staging"}, cfg.EnvironmentNames())
	assert.Equal(t, filepath.Join("infra", "staging"), cfg.Environments["staging"].WorkDir)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".blinders", "history.db"), cfg.History.DSN)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
deploy:
  step_timeout: 2m
  grace_period: 5s
  concurrency: 3
  stdout_tail_bytes: 512
environments:
  sandbox:
    aws_profile: sandbox-admin
    work_dir: terraform/sandbox
    vars:
      region: eu-west-1
aws:
  check_profile: false
history:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2*time.Minute, cfg.Deploy.StepTimeout)
	assert.Equal(t, 5*time.Second, cfg.Deploy.GracePeriod)
	assert.Equal(t, 3, cfg.Deploy.Concurrency)
	assert.Equal(t, 512, cfg.Deploy.StdoutTailBytes)
	assert.False(t, cfg.AWS.CheckProfile)
	assert.False(t, cfg.History.Enabled)

	assert.Equal(t, []string{"sandbox"}, cfg.EnvironmentNames())
	env, err := cfg.Environment("sandbox")
	require.NoError(t, err)
	assert.Equal(t, "sandbox-admin", env.AWSProfile)
	assert.Equal(t, "terraform/sandbox", env.WorkDir)
	assert.Equal(t, "eu-west-1", env.Vars["region"])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BLINDERS_DEPLOY_CONCURRENCY", "4")
	t.Setenv("BLINDERS_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Deploy.Concurrency)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_ParseError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "deploy:\n  concurrency: [1\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigParse)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "deploy:\n  step_timeout: forever\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestLoad_ValidationError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "deploy:\n  concurrency: 0\n  shell: \"\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "deploy.concurrency")
	assert.Contains(t, err.Error(), "deploy.shell")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"zero timeout", func(c *Config) { c.Deploy.StepTimeout = 0 }, "deploy.step_timeout"},
		{"negative grace", func(c *Config) { c.Deploy.GracePeriod = -time.Second }, "deploy.grace_period"},
		{"negative tail", func(c *Config) { c.Deploy.StdoutTailBytes = -1 }, "deploy.stdout_tail_bytes"},
		{"no environments", func(c *Config) { c.Environments = nil }, "environments"},
		{"history without dsn", func(c *Config) { c.History.DSN = " " }, "history.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestConfig_Environment_NotAllowed(t *testing.T) {
	t.Parallel()

	_, err := Default().Environment("qa")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEnvironmentNotAllowed)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Suggestion, "dev, production, staging")
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, ".aws", "config"), ExpandHome("~/.aws/config"))
	assert.Equal(t, "/etc/blinders.yaml", ExpandHome("/etc/blinders.yaml"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
