package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// StepSpec is one entry of a steps file.
type StepSpec struct {
	Name     string   `yaml:"name"`
	Command  string   `yaml:"command"`
	Requires []string `yaml:"requires,omitempty"`
	Rollback string   `yaml:"rollback,omitempty"`
	Timeout  string   `yaml:"timeout,omitempty"`
}

// StepsFileBuilder builds registry steps files.
type StepsFileBuilder struct {
	steps []StepSpec
}

// NewStepsFile creates an empty steps file builder.
func NewStepsFile() *StepsFileBuilder {
	return &StepsFileBuilder{}
}

// Step appends a step with no preconditions.
func (b *StepsFileBuilder) Step(name, command string) *StepsFileBuilder {
	b.steps = append(b.steps, StepSpec{Name: name, Command: command})
	return b
}

// Requires sets the preconditions of the last added step.
func (b *StepsFileBuilder) Requires(names ...string) *StepsFileBuilder {
	b.last().Requires = append(b.last().Requires, names...)
	return b
}

// Rollback sets the rollback step of the last added step.
func (b *StepsFileBuilder) Rollback(name string) *StepsFileBuilder {
	b.last().Rollback = name
	return b
}

// Timeout sets the timeout of the last added step.
func (b *StepsFileBuilder) Timeout(d time.Duration) *StepsFileBuilder {
	b.last().Timeout = d.String()
	return b
}

func (b *StepsFileBuilder) last() *StepSpec {
	if len(b.steps) == 0 {
		panic("testutil: call Step before configuring it")
	}
	return &b.steps[len(b.steps)-1]
}

// ToYAML renders the steps file.
func (b *StepsFileBuilder) ToYAML() string {
	data, err := yaml.Marshal(map[string]interface{}{"steps": b.steps})
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Write writes the steps file to a temp dir and returns its path.
func (b *StepsFileBuilder) Write(t testing.TB) string {
	t.Helper()
	return WriteTempFile(t, t.TempDir(), "steps.yaml", b.ToYAML())
}

// ConfigBuilder builds blinders.yaml files. Unset sections keep their
// defaults, except history which is disabled unless History is called.
type ConfigBuilder struct {
	values       map[string]map[string]interface{}
	environments map[string]map[string]interface{}
}

// NewConfig creates a config builder.
func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{
		values: map[string]map[string]interface{}{
			"log":     {"level": "error"},
			"aws":     {"check_profile": false},
			"history": {"enabled": false},
		},
		environments: make(map[string]map[string]interface{}),
	}
}

// Set sets section.key to value, e.g. Set("deploy", "concurrency", 2).
func (b *ConfigBuilder) Set(section, key string, value interface{}) *ConfigBuilder {
	if b.values[section] == nil {
		b.values[section] = make(map[string]interface{})
	}
	b.values[section][key] = value
	return b
}

// Environment adds an allowed environment.
func (b *ConfigBuilder) Environment(name, workDir string) *ConfigBuilder {
	b.environments[name] = map[string]interface{}{"work_dir": workDir}
	return b
}

// AWSProfile sets the profile of an environment added with Environment.
func (b *ConfigBuilder) AWSProfile(env, profile string) *ConfigBuilder {
	if b.environments[env] == nil {
		b.environments[env] = make(map[string]interface{})
	}
	b.environments[env]["aws_profile"] = profile
	return b
}

// Var sets a template variable of an environment.
func (b *ConfigBuilder) Var(env, key, value string) *ConfigBuilder {
	if b.environments[env] == nil {
		b.environments[env] = make(map[string]interface{})
	}
	vars, _ := b.environments[env]["vars"].(map[string]string)
	if vars == nil {
		vars = make(map[string]string)
		b.environments[env]["vars"] = vars
	}
	vars[key] = value
	return b
}

// History enables deployment history at dsn.
func (b *ConfigBuilder) History(dsn string) *ConfigBuilder {
	return b.Set("history", "enabled", true).Set("history", "dsn", dsn)
}

// Registry points deploy.registry at a steps file.
func (b *ConfigBuilder) Registry(path string) *ConfigBuilder {
	return b.Set("deploy", "registry", path)
}

// ToYAML renders the config file.
func (b *ConfigBuilder) ToYAML() string {
	doc := make(map[string]interface{}, len(b.values)+1)
	for section, values := range b.values {
		doc[section] = values
	}
	if len(b.environments) > 0 {
		doc["environments"] = b.environments
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Write writes blinders.yaml to a temp dir and returns its path.
func (b *ConfigBuilder) Write(t testing.TB) string {
	t.Helper()

	path := WriteTempFile(t, t.TempDir(), "blinders.yaml", b.ToYAML())
	require.FileExists(t, path)
	return path
}
