package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DotEnvFile is read before environment overrides are applied.
var DotEnvFile = ".env"

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	// Only variables that are set replace values from the YAML file.
	if err := env.Parse(config); err != nil {
		return err
	}

	return nil
}
