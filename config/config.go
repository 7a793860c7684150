// Package config handles duet.toml run configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DEFAULT_FILE is the configuration file name looked up by the CLI.
const DEFAULT_FILE = "duet.toml"

// Config is a duet run configuration.
type Config struct {
	Program   string            `toml:"program"`
	StepLimit int               `toml:"step_limit"`
	Verbose   bool              `toml:"verbose"`
	Trace     Output            `toml:"trace"`
	Report    Output            `toml:"report"`
	Defines   map[string]string `toml:"defines"`

	// Dir is the directory containing the configuration file (set at load time).
	Dir string `toml:"-"`
}

// Output names an optional output file.
type Output struct {
	Output string `toml:"output"`
}

// Parse decodes TOML text into a configuration, and applies defaults.
// Relative paths stay relative to the current directory.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if err := c.defaults(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Load parses a configuration file. Relative file names inside it are
// resolved against the directory holding the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	c.Program = c.Resolve(c.Program)
	c.Trace.Output = c.Resolve(c.Trace.Output)
	c.Report.Output = c.Resolve(c.Report.Output)

	return c, nil
}

// Resolve returns a file name relative to the configuration directory.
// Empty names, "-" and absolute paths are returned unchanged.
func (c *Config) Resolve(name string) string {
	if len(name) == 0 || name == "-" || filepath.IsAbs(name) || len(c.Dir) == 0 {
		return name
	}

	return filepath.Join(c.Dir, name)
}

func (c *Config) defaults() error {
	if c.StepLimit < 0 {
		return fmt.Errorf("step_limit %d: must not be negative", c.StepLimit)
	}

	// Defaults
	if c.Defines == nil {
		c.Defines = map[string]string{}
	}

	return nil
}
