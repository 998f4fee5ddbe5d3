package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	app "contactbook/internal/app/server"
	"contactbook/internal/config"
	"contactbook/internal/errors/logging"
	"contactbook/internal/logger"
)

var version = "dev"

// CLI holds the server flags. Flags override the config file and environment.
type CLI struct {
	Version   kong.VersionFlag `help:"Show version." short:"V"`
	Config    string           `help:"Path to the YAML configuration file." short:"c" default:"contactbook.yaml"`
	Addr      string           `help:"Listen address (host:port)."`
	DB        string           `name:"db" help:"Path to the SQLite database file."`
	LogLevel  string           `help:"Log level (debug, info, warn, error)."`
	LogFormat string           `help:"Log format (color, text, json)."`
}

// loadConfig merges defaults, the config file, environment and flags, in that order.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.DB != "" {
		cfg.Store.Path = c.DB
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run starts the server and blocks until it stops.
func (c *CLI) Run() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Format, cfg.LogLevel(), os.Stdout,
		logger.WithFields(logger.String("service", "contactbook-server")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.NewServer(cfg, log)
	if err := application.Run(ctx); err != nil {
		logging.Error(ctx, log, "contact book server failed", err)
		return err
	}

	log.Info("contact book server exited safely")
	return nil
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("contactbook-server"),
		kong.Description("Serve the contact book HTTP API."),
		kong.Vars{"version": version},
	)
	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
