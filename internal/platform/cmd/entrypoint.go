// Package cmd provides shared entrypoint helpers for CLI commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scholarflow/scholarflow/internal/platform/config"
)

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// ParseConfigFromArgs loads defaults from env and then parses flags.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, args []string) error {
	if err := ParseConfig(cfg); err != nil {
		return err
	}
	return ParseArgs(fs, args)
}

// NewLogger builds the process logger. Debug mode switches to the
// development encoder with human-readable output.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("build development logger: %w", err)
		}
		return logger, nil
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build production logger: %w", err)
	}
	return logger, nil
}

// RunWithLogger builds the process logger and executes a command run loop,
// flushing buffered log entries on the way out.
func RunWithLogger(ctx context.Context, command string, debug bool, run func(context.Context, *zap.Logger) error) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("command name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	logger, err := NewLogger(debug)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	return run(ctx, logger.Named(command))
}
