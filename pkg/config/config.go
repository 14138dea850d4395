// Package config handles configuration for replay-runner.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes yaml duration strings
// ("500ms", "2s") as well as integer nanosecond counts.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Workspace layout. Relative paths resolve against the home directory.
	ScriptsDir string `yaml:"scriptsDir"`
	ImagesDir  string `yaml:"imagesDir"`
	ResultsDir string `yaml:"resultsDir"`
	LogDir     string `yaml:"logDir"`

	// ManifestPath points at the control inventory JSON.
	ManifestPath string `yaml:"manifestPath"`

	// Target window attach.
	WindowTitle string `yaml:"windowTitle"`
	WindowClass string `yaml:"windowClass"`

	// Resolution settings
	UseAutomationIDs bool     `yaml:"useAutomationIds"`
	PreferSemantic   bool     `yaml:"preferSemantic"`
	WaitTimeout      Duration `yaml:"waitTimeout"`
	PollInterval     Duration `yaml:"pollInterval"`

	// Timing settings
	DefaultDelay          Duration `yaml:"defaultDelay"`
	UseDefaultDelayAlways bool     `yaml:"useDefaultDelayAlways"`

	// Screenshot settings
	UseScreenshots       bool    `yaml:"useScreenshots"`
	TaskbarCropPx        int     `yaml:"taskbarCropPx"`
	DiffTolerancePercent float64 `yaml:"diffTolerancePercent"`
	SSIM                 bool    `yaml:"ssim"`
	SSIMThreshold        float64 `yaml:"ssimThreshold"`

	// Variables injected into the scripting engine.
	Env map[string]string `yaml:"env"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		ScriptsDir:       "scripts",
		ImagesDir:        "images",
		ResultsDir:       "results",
		LogDir:           "logs",
		UseAutomationIDs: true,
		PreferSemantic:   true,
		WaitTimeout:      Duration(5 * time.Second),
		PollInterval:     Duration(250 * time.Millisecond),
		DefaultDelay:     Duration(time.Second),
		UseScreenshots:   true,
		TaskbarCropPx:    60,
		SSIMThreshold:    0.98,
	}
}

// Load loads configuration from a file, filling unset fields with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}
	// No config file found, use defaults.
	return Default(), nil
}

// Resolve returns a workspace path, anchoring relative paths at the home
// directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetHome(), path)
}
