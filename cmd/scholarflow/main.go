// Package main runs the scholarflow fee tracking CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	scholarflowcmd "github.com/scholarflow/scholarflow/internal/cmd/scholarflow"
	"github.com/scholarflow/scholarflow/internal/platform/config"
)

func main() {
	cfg, err := scholarflowcmd.ParseConfig()
	if err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scholarflowcmd.Run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
