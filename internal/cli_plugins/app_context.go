package cliplugins

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"asterix/internal/config"
)

// LoggerFactory builds the process logger for an environment name.
type LoggerFactory func(env string) *slog.Logger

// AppContext holds what the commands share.
type AppContext struct {
	NewLogger LoggerFactory
}

func NewAppContext(newLogger LoggerFactory) *AppContext {
	return &AppContext{NewLogger: newLogger}
}

// load reads the config named by the --config flag, or CONFIG_PATH, and
// builds the logger for its env.
func (a *AppContext) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("flag --config: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	return cfg, a.NewLogger(cfg.Env), nil
}
