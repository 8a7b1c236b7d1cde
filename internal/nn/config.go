package nn

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// ConfigFileName is the adapter configuration file written next to
// adapter checkpoints.
const ConfigFileName = "vera_config.json"

// VeraConfig is the persisted adapter configuration. It mirrors
// VeraOptions plus the names of the target modules the adapter replaces,
// and round-trips through JSON so a saved adapter can be reconstructed.
type VeraConfig struct {
	R             int      `json:"r" yaml:"r"`
	VeraAlpha     int      `json:"vera_alpha" yaml:"vera_alpha"`
	VeraDropout   float32  `json:"vera_dropout" yaml:"vera_dropout"`
	MergeWeights  bool     `json:"merge_weights" yaml:"merge_weights"`
	PissaInit     bool     `json:"pissa_init" yaml:"pissa_init"`
	TargetModules []string `json:"target_modules,omitempty" yaml:"target_modules,omitempty"`
}

// Options converts the config into construction options for a single
// layer.
func (c *VeraConfig) Options() VeraOptions {
	return VeraOptions{
		R:            c.R,
		VeraAlpha:    c.VeraAlpha,
		VeraDropout:  c.VeraDropout,
		MergeWeights: c.MergeWeights,
		PissaInit:    c.PissaInit,
	}
}

// Save writes the config as JSON into dir.
func (c *VeraConfig) Save(dir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vera config: %w", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadVeraConfig reads a saved adapter configuration from dir.
func LoadVeraConfig(dir string) (*VeraConfig, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg VeraConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}
