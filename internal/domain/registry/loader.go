package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// stepsFile is the on-disk representation of a registry.
type stepsFile struct {
	Steps []stepEntry `yaml:"steps" toml:"steps"`
}

type stepEntry struct {
	Name     string   `yaml:"name" toml:"name"`
	Command  string   `yaml:"command" toml:"command"`
	Requires []string `yaml:"requires,omitempty" toml:"requires,omitempty"`
	Rollback string   `yaml:"rollback,omitempty" toml:"rollback,omitempty"`
	Timeout  string   `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Load reads a steps file and builds a Registry.
// The format is chosen by extension: .yaml/.yml or .toml.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewConfigurationError("", fmt.Sprintf("steps file not found: %s", path)).WithUnderlying(err)
		}
		return nil, NewConfigurationError("", fmt.Sprintf("cannot read steps file: %s", path)).WithUnderlying(err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return nil, NewConfigurationError("", fmt.Sprintf("unsupported steps file extension %q (use .yaml, .yml or .toml)", ext))
	}
}

// ParseYAML builds a Registry from YAML bytes. Unknown keys are rejected.
func ParseYAML(data []byte) (*Registry, error) {
	var raw stepsFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, NewConfigurationError("", "steps file is not valid YAML").WithUnderlying(err)
	}

	return fromEntries(raw.Steps)
}

// ParseTOML builds a Registry from TOML bytes. Unknown keys are rejected.
func ParseTOML(data []byte) (*Registry, error) {
	var raw stepsFile

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, NewConfigurationError("", "steps file is not valid TOML").WithUnderlying(err)
	}

	return fromEntries(raw.Steps)
}

func fromEntries(entries []stepEntry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, NewConfigurationError("", "steps file defines no steps")
	}

	defs := make([]StepDefinition, 0, len(entries))
	for _, e := range entries {
		def := NewStepDefinition(e.Name, e.Command).
			Requires(e.Requires...).
			WithRollback(strings.TrimSpace(e.Rollback))

		if e.Timeout != "" {
			timeout, err := time.ParseDuration(e.Timeout)
			if err != nil {
				return nil, NewConfigurationError(e.Name, fmt.Sprintf("invalid timeout %q", e.Timeout)).WithUnderlying(err)
			}
			def = def.WithTimeout(timeout)
		}

		defs = append(defs, def)
	}

	return New(defs...)
}
