package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "beaconcore",
		Usage: "pending deposit processing and execution payload tooling",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)"},
			&cli.StringFlag{Name: "preset", Value: "mainnet", Usage: "Chain spec preset (mainnet, minimal)"},
			&cli.StringFlag{Name: "config", Usage: "Chain spec YAML file; overrides --preset"},
		},
		Commands: []*cli.Command{
			maxSizeCommand,
			decodeCommand,
			processDepositsCommand,
			serveCommand,
		},
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	var level slog.Level
	switch c.String("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}
