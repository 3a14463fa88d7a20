package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".pagerank"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads corpus configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers decide
// whether that matters based on whether the path was given explicitly.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cf.Corpora == nil {
		cf.Corpora = make(map[string]CorpusConfig)
	}

	if err := cf.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cf, nil
}

// validate rejects values that Config.Validate would reject later, so the
// error names the file rather than a flag.
func (cf *File) validate() error {
	check := func(name string, cc CorpusConfig) error {
		if cc.Damping != 0 {
			if err := validateDamping(cc.Damping); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		if cc.Samples != 0 && cc.Samples < 2 {
			return fmt.Errorf("%s: %w", name, ErrInvalidSamples)
		}
		if cc.Tolerance != 0 {
			if err := validateTolerance(cc.Tolerance); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	}

	if err := check("defaults", cf.Defaults); err != nil {
		return err
	}
	for name, cc := range cf.Corpora {
		if err := check("corpora."+name, cc); err != nil {
			return err
		}
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .pagerank in the current directory
// 3. Look for .pagerank in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
