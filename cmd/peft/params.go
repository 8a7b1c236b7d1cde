package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// paramsConfig describes an adaptation plan: shared adapter options
// plus the dense layers they will be attached to.
type paramsConfig struct {
	R           int     `yaml:"r"`
	VeraAlpha   int     `yaml:"vera_alpha"`
	VeraDropout float32 `yaml:"vera_dropout"`
	Targets     []struct {
		Name        string `yaml:"name"`
		InFeatures  int    `yaml:"in_features"`
		OutFeatures int    `yaml:"out_features"`
	} `yaml:"targets"`
}

func paramsCmd() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:  "params",
		Usage: "Estimate the trainable parameter budget of an adaptation plan",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "adaptation plan YAML file",
				Required:    true,
				Destination: &configPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			var cfg paramsConfig
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("failed to parse config: %w", err)
			}
			if cfg.R < 1 {
				return fmt.Errorf("r must be a positive integer, got %d", cfg.R)
			}

			total := 0
			frozen := 0
			fmt.Printf("%-32s %12s %12s\n", "target", "trainable", "frozen")
			for _, t := range cfg.Targets {
				// A [in, r] + B [r, out] + d [r] + b [out]; the copied
				// weight stays frozen.
				trainable := t.InFeatures*cfg.R + cfg.R*t.OutFeatures + cfg.R + t.OutFeatures
				total += trainable
				frozen += t.InFeatures * t.OutFeatures
				fmt.Printf("%-32s %12d %12d\n", t.Name, trainable, t.InFeatures*t.OutFeatures)
			}
			fmt.Printf("\nrank %d: %d trainable adapter parameters over %d frozen weight parameters (%.4f%%)\n",
				cfg.R, total, frozen, 100*float64(total)/float64(frozen))
			return nil
		},
	}
}
