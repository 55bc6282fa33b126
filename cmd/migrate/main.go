// Package main is the CLI entry point for applying and inspecting the
// reservation engine's schema migrations.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/vitaliisemenov/reservo/internal/infrastructure/migrations"
)

func main() {
	config, err := migrations.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load migration configuration: %v\n", err)
		os.Exit(1)
	}
	config.Logger = slog.Default()
	config.PrintConfig(config.Logger)

	manager, err := migrations.NewMigrationManager(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to construct migration manager: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = manager.Disconnect(context.Background()) }()

	cli := migrations.NewCLI(manager, config.Logger)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "migration command failed: %v\n", err)
		os.Exit(1)
	}
}
