// Package config defines configuration for the fanqie CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SaveMode selects the renderer producing the final artifact.
type SaveMode string

const (
	SaveSingleTXT SaveMode = "txt"
	SaveSplitTXT  SaveMode = "split"
	SaveEPUB      SaveMode = "epub"
	SaveHTML      SaveMode = "html"
	SaveLaTeX     SaveMode = "latex"
)

// Config holds everything a download run needs outside the book id itself.
type Config struct {
	// DataDir holds the bookstore, the library database and the cookie file.
	DataDir string `yaml:"data_dir"`

	// SavePath is where rendered artifacts are written.
	SavePath string `yaml:"save_path"`

	// SaveMode picks the output renderer.
	SaveMode SaveMode `yaml:"save_mode"`

	// Workers is the number of parallel chapter downloads.
	Workers int `yaml:"workers"`

	// DelayMinMS/DelayMaxMS bound the randomized pause after each fetched
	// chapter, pacing request rate against server-side rate limiting.
	DelayMinMS int `yaml:"delay_min_ms"`
	DelayMaxMS int `yaml:"delay_max_ms"`

	// IndentCount and IndentChar control the paragraph-leading placeholder
	// renderers prepend to each line. Zero count disables indenting.
	IndentCount int    `yaml:"indent_count"`
	IndentChar  string `yaml:"indent_char"`

	// RequestTimeout applies to every network attempt.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns a Config with sensible defaults. Workers defaults to 1,
// i.e. sequential downloads unless explicitly raised.
func Default() Config {
	return Config{
		DataDir:        "data",
		SavePath:       ".",
		SaveMode:       SaveSingleTXT,
		Workers:        1,
		DelayMinMS:     50,
		DelayMaxMS:     150,
		IndentCount:    0,
		IndentChar:     "　",
		RequestTimeout: 10 * time.Second,
	}
}

// LoadFromFile loads configuration from a YAML file, layering it over the
// defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir is required")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.DelayMinMS < 0 || c.DelayMaxMS < c.DelayMinMS {
		return errors.New("config: delay window must satisfy 0 <= min <= max")
	}
	switch c.SaveMode {
	case SaveSingleTXT, SaveSplitTXT, SaveEPUB, SaveHTML, SaveLaTeX:
	default:
		return fmt.Errorf("config: unknown save_mode %q", c.SaveMode)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request_timeout must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config. Zero values
// in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.DataDir != "" {
		c.DataDir = override.DataDir
	}
	if override.SavePath != "" {
		c.SavePath = override.SavePath
	}
	if override.SaveMode != "" {
		c.SaveMode = override.SaveMode
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.DelayMinMS != 0 {
		c.DelayMinMS = override.DelayMinMS
	}
	if override.DelayMaxMS != 0 {
		c.DelayMaxMS = override.DelayMaxMS
	}
	if override.IndentCount != 0 {
		c.IndentCount = override.IndentCount
	}
	if override.IndentChar != "" {
		c.IndentChar = override.IndentChar
	}
	if override.RequestTimeout != 0 {
		c.RequestTimeout = override.RequestTimeout
	}
	return c
}

// Indent returns the paragraph-leading placeholder string.
func (c Config) Indent() string {
	if c.IndentCount <= 0 {
		return ""
	}
	out := ""
	for i := 0; i < c.IndentCount; i++ {
		out += c.IndentChar
	}
	return out
}
