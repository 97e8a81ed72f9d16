package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScenePaths []string // hcl files or directories
	SceneName  string   // empty selects the first scene

	Strict          bool // fail builds on relation invariant violations
	RemoveNodes     bool // let the pruner detach orphaned operations
	SkipCycleSolver bool
	Serve           bool // keep running and rebuild on demand

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	PublishURL       string
	PublishNamespace string
	PublishEvent     string
	PublishInsecure  bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ScenePaths) == 0 {
		return nil, errors.New("at least one scene path is required")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.PublishURL == "" && (cfg.PublishNamespace != "" || cfg.PublishEvent != "") {
		return nil, errors.New("publish namespace and event require a publish URL")
	}
	if cfg.PublishURL != "" && cfg.PublishNamespace == "" {
		cfg.PublishNamespace = "/"
	}
	return &cfg, nil
}

// FileConfig is the layout of the optional YAML configuration file. Pointer
// fields distinguish "not set" from zero values.
type FileConfig struct {
	Scenes          []string `yaml:"scenes"`
	Scene           string   `yaml:"scene"`
	Strict          *bool    `yaml:"strict"`
	RemoveNodes     *bool    `yaml:"remove_nodes"`
	SkipCycleSolver *bool    `yaml:"skip_cycle_solver"`
	Serve           *bool    `yaml:"serve"`

	Log struct {
		Format string `yaml:"format"`
		Level  string `yaml:"level"`
	} `yaml:"log"`

	HealthcheckPort *int `yaml:"healthcheck_port"`

	Publish struct {
		URL       string `yaml:"url"`
		Namespace string `yaml:"namespace"`
		Event     string `yaml:"event"`
		Insecure  bool   `yaml:"insecure_skip_verify"`
	} `yaml:"publish"`
}

// LoadConfigFile reads a YAML configuration file. Unknown keys are errors.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// Apply copies every field set in the file onto cfg.
func (fc *FileConfig) Apply(cfg *Config) {
	if len(fc.Scenes) > 0 {
		cfg.ScenePaths = append([]string(nil), fc.Scenes...)
	}
	setString(&cfg.SceneName, fc.Scene)
	setBool(&cfg.Strict, fc.Strict)
	setBool(&cfg.RemoveNodes, fc.RemoveNodes)
	setBool(&cfg.SkipCycleSolver, fc.SkipCycleSolver)
	setBool(&cfg.Serve, fc.Serve)
	setString(&cfg.LogFormat, fc.Log.Format)
	setString(&cfg.LogLevel, fc.Log.Level)
	if fc.HealthcheckPort != nil {
		cfg.HealthcheckPort = *fc.HealthcheckPort
	}
	setString(&cfg.PublishURL, fc.Publish.URL)
	setString(&cfg.PublishNamespace, fc.Publish.Namespace)
	setString(&cfg.PublishEvent, fc.Publish.Event)
	if fc.Publish.Insecure {
		cfg.PublishInsecure = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
