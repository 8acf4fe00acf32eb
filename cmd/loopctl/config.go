package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// envConfig holds process-environment overrides for the demo pipeline
// size, loaded independently of the viper-backed file/flag configuration
// so a CI job or container can tune it without a config file.
type envConfig struct {
	Handlers int `env:"LOOPCTL_HANDLERS" envDefault:"0"`
	Messages int `env:"LOOPCTL_MESSAGES" envDefault:"0"`
}

func applyEnvOverrides() error {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Handlers > 0 {
		viper.Set("handlers", cfg.Handlers)
	}
	if cfg.Messages > 0 {
		viper.Set("messages", cfg.Messages)
	}
	return nil
}
