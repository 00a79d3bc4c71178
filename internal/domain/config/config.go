// Package config loads blinders settings from file, environment and defaults.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. BLINDERS_DEPLOY_STEP_TIMEOUT.
const EnvPrefix = "BLINDERS"

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "blinders"

// Config holds all application configuration.
type Config struct {
	Log          LogConfig                    `mapstructure:"log"`
	Deploy       DeployConfig                 `mapstructure:"deploy"`
	Environments map[string]EnvironmentConfig `mapstructure:"environments"`
	AWS          AWSConfig                    `mapstructure:"aws"`
	History      HistoryConfig                `mapstructure:"history"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DeployConfig holds execution settings.
type DeployConfig struct {
	StepTimeout     time.Duration `mapstructure:"step_timeout"`
	GracePeriod     time.Duration `mapstructure:"grace_period"`
	Concurrency     int           `mapstructure:"concurrency"`
	StdoutTailBytes int           `mapstructure:"stdout_tail_bytes"`
	Shell           string        `mapstructure:"shell"`
	// Registry is a YAML or TOML steps file; empty selects the built-in steps.
	Registry string `mapstructure:"registry"`
}

// EnvironmentConfig holds the settings for one allowed environment.
type EnvironmentConfig struct {
	AWSProfile string            `mapstructure:"aws_profile"`
	WorkDir    string            `mapstructure:"work_dir"`
	Vars       map[string]string `mapstructure:"vars"`
}

// AWSConfig holds settings for the AWS profile check run before real deployments.
type AWSConfig struct {
	ConfigFile   string `mapstructure:"config_file"`
	CheckProfile bool   `mapstructure:"check_profile"`
}

// HistoryConfig holds deployment history settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// DefaultEnvironments returns the environments used when none are configured.
func DefaultEnvironments() map[string]EnvironmentConfig {
	envs := make(map[string]EnvironmentConfig, 3)
	for _, name := range []string{"dev", "staging", "production"} {
		envs[name] = EnvironmentConfig{WorkDir: filepath.Join("infra", name)}
	}
	return envs
}

// Load reads configuration from path (or ./blinders.yaml when path is empty),
// applies BLINDERS_* environment overrides and defaults, and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// No blinders.yaml; defaults apply.
		case path != "" && errors.Is(err, os.ErrNotExist):
			return nil, NewConfigNotFoundError(path)
		default:
			return nil, NewConfigParseError(v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewConfigInvalidError(err)
	}
	cfg.File = v.ConfigFileUsed()

	if len(cfg.Environments) == 0 {
		cfg.Environments = DefaultEnvironments()
	}
	cfg.AWS.ConfigFile = ExpandHome(cfg.AWS.ConfigFile)
	cfg.History.DSN = ExpandHome(cfg.History.DSN)
	cfg.Deploy.Registry = ExpandHome(cfg.Deploy.Registry)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	cfg := &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Deploy: DeployConfig{
			StepTimeout:     10 * time.Minute,
			GracePeriod:     30 * time.Second,
			Concurrency:     1,
			StdoutTailBytes: 4096,
			Shell:           "sh",
		},
		Environments: DefaultEnvironments(),
		AWS: AWSConfig{
			ConfigFile:   ExpandHome(filepath.Join("~", ".aws", "config")),
			CheckProfile: true,
		},
		History: HistoryConfig{
			Enabled: true,
			DSN:     ExpandHome(filepath.Join("~", ".blinders", "history.db")),
		},
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("deploy.step_timeout", d.Deploy.StepTimeout.String())
	v.SetDefault("deploy.grace_period", d.Deploy.GracePeriod.String())
	v.SetDefault("deploy.concurrency", d.Deploy.Concurrency)
	v.SetDefault("deploy.stdout_tail_bytes", d.Deploy.StdoutTailBytes)
	v.SetDefault("deploy.shell", d.Deploy.Shell)
	v.SetDefault("deploy.registry", "")

	v.SetDefault("aws.config_file", filepath.Join("~", ".aws", "config"))
	v.SetDefault("aws.check_profile", d.AWS.CheckProfile)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.dsn", filepath.Join("~", ".blinders", "history.db"))
}

// Validate checks value ranges and the environment allow-list.
func (c *Config) Validate() error {
	errs := NewErrorList()

	if c.Deploy.StepTimeout <= 0 {
		errs.AddValidation("deploy.step_timeout", "must be positive", "Use a duration such as 10m.")
	}
	if c.Deploy.GracePeriod < 0 {
		errs.AddValidation("deploy.grace_period", "must not be negative", "Use a duration such as 30s, or 0s to terminate at once.")
	}
	if c.Deploy.Concurrency < 1 {
		errs.AddValidation("deploy.concurrency", "must be at least 1", "Use 1 to run steps strictly in order.")
	}
	if c.Deploy.StdoutTailBytes < 0 {
		errs.AddValidation("deploy.stdout_tail_bytes", "must not be negative", "")
	}
	if strings.TrimSpace(c.Deploy.Shell) == "" {
		errs.AddValidation("deploy.shell", "must not be empty", "Use sh or bash.")
	}
	if len(c.Environments) == 0 {
		errs.AddValidation("environments", "at least one environment is required", "Define environments such as dev, staging and production.")
	}
	for _, name := range c.EnvironmentNames() {
		if strings.TrimSpace(name) == "" {
			errs.AddValidation("environments", "environment names must not be empty", "")
		}
	}
	if c.History.Enabled && strings.TrimSpace(c.History.DSN) == "" {
		errs.AddValidation("history.dsn", "must be set when history is enabled", "Set history.enabled: false to turn history off.")
	}

	return errs.AsError()
}

// EnvironmentNames returns the allowed environment names, sorted.
func (c *Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environment returns the settings for an allowed environment.
func (c *Config) Environment(name string) (EnvironmentConfig, error) {
	env, ok := c.Environments[name]
	if !ok {
		return EnvironmentConfig{}, NewEnvironmentNotAllowedError(name, c.EnvironmentNames())
	}
	return env, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
