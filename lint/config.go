package lint

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/splint/catalog"
	"github.com/gnolang/splint/internal/fetch"
)

// DefaultConfigPath is read when no configuration file is given.
const DefaultConfigPath = ".splint.yaml"

// DefaultTimeout bounds a whole run.
const DefaultTimeout = 5 * time.Minute

// Config represents the linter configuration file.
type Config struct {
	Name string `yaml:"name"`
	// Schema is an explicit shape location applied to every file.
	Schema string `yaml:"schema,omitempty"`
	// Strict checks shapes against their meta-schema. Defaults to true.
	Strict       *bool             `yaml:"strict,omitempty"`
	KeepGoing    bool              `yaml:"keepGoing,omitempty"`
	Jobs         int               `yaml:"jobs,omitempty"`
	Timeout      time.Duration     `yaml:"timeout,omitempty"`
	FetchTimeout time.Duration     `yaml:"fetchTimeout,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	// Schemas are appended to the built-in catalog.
	Schemas []catalog.Entry `yaml:"schemas,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Name:         "splint",
		Jobs:         1,
		Timeout:      DefaultTimeout,
		FetchTimeout: fetch.DefaultTimeout,
	}
}

// StrictValue reports the effective strict setting.
func (c Config) StrictValue() bool {
	return c.Strict == nil || *c.Strict
}

// LoadConfig reads the configuration at path over the defaults. A missing
// file is only an error when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return config, nil
		}
		return config, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if config.Jobs < 1 {
		config.Jobs = 1
	}
	return config, nil
}
