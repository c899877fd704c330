package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/romariotrain/meeting-pipeline/internal/config"
	"github.com/romariotrain/meeting-pipeline/internal/logger"
)

// ConfigEnv names the config file when no path is passed explicitly.
const ConfigEnv = "MEETINGS_CONFIG"

// Bootstrap loads the config and builds the process logger from it.
func Bootstrap(path string) (*config.Config, zerolog.Logger, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}
