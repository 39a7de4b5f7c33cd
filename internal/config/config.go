// Package config provides configuration management for prmetrics.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (PRMETRICS_*)
// 3. Project config (.prmetrics/config.yaml in cwd)
// 4. Home config (~/.prmetrics/config.yaml)
// 5. Defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all prmetrics configuration.
type Config struct {
	// Output controls the default output format (table, json, jsonl, markdown, yaml).
	Output string `yaml:"output" json:"output"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// VerboseSet tracks whether Verbose was explicitly set, so false can win.
	VerboseSet bool `yaml:"-" json:"-"`

	// Workers is the derivation concurrency. 0 means one per CPU.
	Workers int `yaml:"workers" json:"workers"`

	// WorkersSet tracks whether Workers was explicitly set, so 0 can win.
	WorkersSet bool `yaml:"-" json:"-"`

	// Timezone is the IANA zone whose calendar dates business days are counted in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogFormat selects the slog handler (json, text).
	LogFormat string `yaml:"log_format" json:"log_format"`

	// Parser settings
	Parser ParserConfig `yaml:"parser" json:"parser"`

	// Server settings
	Server ServerConfig `yaml:"server" json:"server"`
}

// UnmarshalYAML records whether verbose and workers were present in the file.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	var raw struct {
		Verbose *bool `yaml:"verbose"`
		Workers *int  `yaml:"workers"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.VerboseSet = raw.Verbose != nil
	c.WorkersSet = raw.Workers != nil
	return nil
}

// ParserConfig holds input parsing settings.
type ParserConfig struct {
	// SkipMalformed drops undecodable records instead of reporting each one.
	SkipMalformed bool `yaml:"skip_malformed" json:"skip_malformed"`

	// SkipMalformedSet tracks whether SkipMalformed was explicitly set.
	// This allows distinguishing between "not set" and "explicitly set to false".
	SkipMalformedSet bool `yaml:"-" json:"-"`
}

// UnmarshalYAML records whether skip_malformed was present in the file.
func (p *ParserConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		SkipMalformed *bool `yaml:"skip_malformed"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.SkipMalformed != nil {
		p.SkipMalformed = *raw.SkipMalformed
		p.SkipMalformedSet = true
	}
	return nil
}

// ServerConfig holds HTTP server settings. Timeouts are Go duration strings.
type ServerConfig struct {
	Addr         string `yaml:"addr" json:"addr"`
	ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  string `yaml:"idle_timeout" json:"idle_timeout"`

	// MaxBodyBytes caps a request body.
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput       = "table"
	defaultTimezone     = "UTC"
	defaultLogFormat    = "json"
	defaultAddr         = ":8080"
	defaultReadTimeout  = "10s"
	defaultWriteTimeout = "30s"
	defaultIdleTimeout  = "60s"
	defaultMaxBodyBytes = 10 << 20
)

// Environment variable names.
const (
	EnvConfig    = "PRMETRICS_CONFIG"
	EnvOutput    = "PRMETRICS_OUTPUT"
	EnvVerbose   = "PRMETRICS_VERBOSE"
	EnvWorkers   = "PRMETRICS_WORKERS"
	EnvTimezone  = "PRMETRICS_TIMEZONE"
	EnvAddr      = "PRMETRICS_ADDR"
	EnvLogFormat = "PRMETRICS_LOG_FORMAT"
)

// Outputs lists the accepted output formats.
var Outputs = []string{"table", "json", "jsonl", "markdown", "yaml"}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:    defaultOutput,
		Verbose:   false,
		Workers:   0,
		Timezone:  defaultTimezone,
		LogFormat: defaultLogFormat,
		Parser: ParserConfig{
			SkipMalformed: true,
		},
		Server: ServerConfig{
			Addr:         defaultAddr,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	// A missing home file is normal; a broken one is not.
	homeConfig, err := loadFromPath(homeConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load home config: %w", err)
	}
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, err := loadFromPath(projectConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load project config: %w", err)
	}
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".prmetrics", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv(EnvConfig)); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".prmetrics", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if v, ok := getEnvBool(EnvVerbose); ok {
		cfg.Verbose = v
		cfg.VerboseSet = true
	}
	if v, ok := getEnvInt(EnvWorkers); ok {
		cfg.Workers = v
		cfg.WorkersSet = true
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt[T int | int64](dst *T, src T) {
	if src != 0 {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
// Verbose and Workers also override when explicitly set to their zero value.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Output, src.Output)
	if src.VerboseSet || src.Verbose {
		dst.Verbose = src.Verbose
		dst.VerboseSet = true
	}
	if src.WorkersSet || src.Workers != 0 {
		dst.Workers = src.Workers
		dst.WorkersSet = true
	}
	mergeStr(&dst.Timezone, src.Timezone)
	mergeStr(&dst.LogFormat, src.LogFormat)

	mergeParser(&dst.Parser, &src.Parser)
	mergeServer(&dst.Server, &src.Server)

	return dst
}

// mergeParser merges parser config fields.
func mergeParser(dst, src *ParserConfig) {
	if src.SkipMalformedSet {
		dst.SkipMalformed = src.SkipMalformed
		dst.SkipMalformedSet = true
	}
}

// mergeServer merges server config fields.
func mergeServer(dst, src *ServerConfig) {
	mergeStr(&dst.Addr, src.Addr)
	mergeStr(&dst.ReadTimeout, src.ReadTimeout)
	mergeStr(&dst.WriteTimeout, src.WriteTimeout)
	mergeStr(&dst.IdleTimeout, src.IdleTimeout)
	mergeInt(&dst.MaxBodyBytes, src.MaxBodyBytes)
}

// Validate checks every enumerated and parsed field.
func (c *Config) Validate() error {
	if !validOutput(c.Output) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidOutput, c.Output, strings.Join(Outputs, ", "))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("%w: %q (want json or text)", ErrInvalidLogFormat, c.LogFormat)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Server.Timeouts(); err != nil {
		return err
	}
	return nil
}

func validOutput(s string) bool {
	for _, o := range Outputs {
		if s == o {
			return true
		}
	}
	return false
}

// Location loads the configured timezone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, c.Timezone, err)
	}
	return loc, nil
}

// Timeouts holds the parsed server timeouts.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// Timeouts parses the server timeout strings. Empty means no timeout.
func (s ServerConfig) Timeouts() (Timeouts, error) {
	var t Timeouts
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"read_timeout", s.ReadTimeout, &t.Read},
		{"write_timeout", s.WriteTimeout, &t.Write},
		{"idle_timeout", s.IdleTimeout, &t.Idle},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil || d < 0 {
			return Timeouts{}, fmt.Errorf("%w: server.%s %q", ErrInvalidDuration, f.name, f.raw)
		}
		*f.dst = d
	}
	return t, nil
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.prmetrics/config.yaml"
	SourceProject Source = ".prmetrics/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// getEnvBool returns the boolean value and whether the env var held one.
func getEnvBool(key string) (bool, bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// getEnvInt returns the integer value and whether the env var held one.
func getEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// resolveStringField resolves a string through the precedence chain.
func resolveStringField(home, project, env, flag, def string) resolved {
	result := resolved{Value: def, Source: SourceDefault}
	if home != "" {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = resolved{Value: flag, Source: SourceFlag}
	}
	return result
}

// resolveWorkers resolves the worker count. A nil flag means unset.
func resolveWorkers(home, project *Config, flag *int) resolved {
	result := resolved{Value: 0, Source: SourceDefault}
	if home.WorkersSet {
		result = resolved{Value: home.Workers, Source: SourceHome}
	}
	if project.WorkersSet {
		result = resolved{Value: project.Workers, Source: SourceProject}
	}
	if n, ok := getEnvInt(EnvWorkers); ok {
		result = resolved{Value: n, Source: SourceEnv}
	}
	if flag != nil {
		result = resolved{Value: *flag, Source: SourceFlag}
	}
	return result
}

// resolveVerbose resolves the verbose switch. A nil flag means unset.
func resolveVerbose(home, project *Config, flag *bool) resolved {
	result := resolved{Value: false, Source: SourceDefault}
	if home.VerboseSet {
		result = resolved{Value: home.Verbose, Source: SourceHome}
	}
	if project.VerboseSet {
		result = resolved{Value: project.Verbose, Source: SourceProject}
	}
	if v, ok := getEnvBool(EnvVerbose); ok {
		result = resolved{Value: v, Source: SourceEnv}
	}
	if flag != nil {
		result = resolved{Value: *flag, Source: SourceFlag}
	}
	return result
}

// ResolvedConfig shows config values with their sources.
type ResolvedConfig struct {
	Output        resolved `json:"output" yaml:"output"`
	Verbose       resolved `json:"verbose" yaml:"verbose"`
	Workers       resolved `json:"workers" yaml:"workers"`
	Timezone      resolved `json:"timezone" yaml:"timezone"`
	LogFormat     resolved `json:"log_format" yaml:"log_format"`
	SkipMalformed resolved `json:"skip_malformed" yaml:"skip_malformed"`
	ServerAddr    resolved `json:"server_addr" yaml:"server_addr"`
}

type resolved struct {
	Value  interface{} `json:"value" yaml:"value"`
	Source Source      `json:"source" yaml:"source"`
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
// flagWorkers and flagVerbose are nil when the flag was not given.
func Resolve(flagOutput string, flagWorkers *int, flagVerbose *bool) *ResolvedConfig {
	home, _ := loadFromPath(homeConfigPath())
	project, _ := loadFromPath(projectConfigPath())
	if home == nil {
		home = &Config{}
	}
	if project == nil {
		project = &Config{}
	}

	rc := &ResolvedConfig{
		Output:        resolveStringField(home.Output, project.Output, os.Getenv(EnvOutput), flagOutput, defaultOutput),
		Verbose:       resolveVerbose(home, project, flagVerbose),
		Workers:       resolveWorkers(home, project, flagWorkers),
		Timezone:      resolveStringField(home.Timezone, project.Timezone, os.Getenv(EnvTimezone), "", defaultTimezone),
		LogFormat:     resolveStringField(home.LogFormat, project.LogFormat, os.Getenv(EnvLogFormat), "", defaultLogFormat),
		SkipMalformed: resolved{Value: true, Source: SourceDefault},
		ServerAddr:    resolveStringField(home.Server.Addr, project.Server.Addr, os.Getenv(EnvAddr), "", defaultAddr),
	}

	if home.Parser.SkipMalformedSet {
		rc.SkipMalformed = resolved{Value: home.Parser.SkipMalformed, Source: SourceHome}
	}
	if project.Parser.SkipMalformedSet {
		rc.SkipMalformed = resolved{Value: project.Parser.SkipMalformed, Source: SourceProject}
	}

	return rc
}
