// Package config loads the compositor's configuration from YAML.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Shell   ShellConfig   `yaml:"shell"`
	Cursor  CursorConfig  `yaml:"cursor"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Workers is the number of goroutines that blocking work, such as
	// writing screenshots, is handed off to.
	Workers int `yaml:"workers" validate:"min=1,max=64"`
}

type OutputConfig struct {
	Width      int    `yaml:"width" validate:"min=1,max=16384"`
	Height     int    `yaml:"height" validate:"min=1,max=16384"`
	Background string `yaml:"background" validate:"omitempty,hexcolor"`
}

// BackgroundColor parses Background. Invalid or empty values yield
// opaque black.
func (c OutputConfig) BackgroundColor() color.RGBA {
	s := c.Background
	if (len(s) != 7) || (s[0] != '#') {
		return color.RGBA{A: 0xff}
	}

	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

type ShellConfig struct {
	// PingInterval is how often every shell surface is checked for
	// liveness.
	PingInterval time.Duration `yaml:"ping_interval" validate:"gt=0"`

	// PingTimeout is how long a client has to answer before its
	// surfaces are considered unresponsive.
	PingTimeout time.Duration `yaml:"ping_timeout" validate:"gt=0,ltefield=PingInterval"`
}

type CursorConfig struct {
	// Theme is the XCursor theme that the fallback cursor is loaded
	// from. Empty means the default theme.
	Theme string `yaml:"theme"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Width:      1280,
			Height:     720,
			Background: "#202028",
		},
		Shell: ShellConfig{
			PingInterval: 10 * time.Second,
			PingTimeout:  5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Addr: "localhost:9464",
		},
		Workers: 2,
	}
}

var validate = validator.New()

// Validate checks that every field has a usable value.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Parse reads YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	err := yaml.Unmarshal(data, c)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses the file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
