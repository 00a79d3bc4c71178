// Package awsprofile verifies that named AWS profiles exist in the shared
// config files. It never calls AWS.
package awsprofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

var (
	// ErrProfileNotFound is returned when no config file defines the profile.
	ErrProfileNotFound = errors.New("aws profile not found")
	// ErrNoConfigFile is returned when neither shared file can be read.
	ErrNoConfigFile = errors.New("no aws config or credentials file found")
)

// Profile describes where a profile was found.
type Profile struct {
	Name   string
	Region string
	Source string
}

// Checker looks profiles up in the shared config and credentials files.
type Checker struct {
	configFile      string
	credentialsFile string
}

// NewChecker creates a Checker for configFile. The credentials file is
// expected next to it, unless AWS_SHARED_CREDENTIALS_FILE says otherwise.
func NewChecker(configFile string) *Checker {
	credentials := os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if credentials == "" {
		credentials = filepath.Join(filepath.Dir(configFile), "credentials")
	}
	return &Checker{
		configFile:      configFile,
		credentialsFile: credentials,
	}
}

// WithCredentialsFile returns a Checker that reads credentials from path.
func (c *Checker) WithCredentialsFile(path string) *Checker {
	return &Checker{
		configFile:      c.configFile,
		credentialsFile: path,
	}
}

// DefaultConfigFile returns AWS_CONFIG_FILE or ~/.aws/config.
func DefaultConfigFile() string {
	if path := os.Getenv("AWS_CONFIG_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".aws", "config")
	}
	return filepath.Join(home, ".aws", "config")
}

// Check returns the profile if either shared file defines it.
func (c *Checker) Check(name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, fmt.Errorf("%w: empty profile name", ErrProfileNotFound)
	}

	loaded := 0

	if cfg, err := ini.Load(c.configFile); err == nil {
		loaded++
		sectionName := "profile " + name
		if name == "default" {
			sectionName = "default"
		}
		if section, err := cfg.GetSection(sectionName); err == nil {
			return Profile{
				Name:   name,
				Region: section.Key("region").String(),
				Source: c.configFile,
			}, nil
		}
	}

	if creds, err := ini.Load(c.credentialsFile); err == nil {
		loaded++
		if section, err := creds.GetSection(name); err == nil {
			return Profile{
				Name:   name,
				Region: section.Key("region").String(),
				Source: c.credentialsFile,
			}, nil
		}
	}

	if loaded == 0 {
		return Profile{}, fmt.Errorf("%w: %s", ErrNoConfigFile, c.configFile)
	}
	return Profile{}, fmt.Errorf("%w: %q is not defined in %s", ErrProfileNotFound, name, c.configFile)
}
