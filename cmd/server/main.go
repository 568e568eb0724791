package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/TermDeck/backend/internal/app"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/server"
)

var flags struct {
	host         string
	port         string
	logLevel     string
	dev          bool
	maxTerminals int
	shell        string
	persist      string
	persistDir   string
	keymap       string
	noRateLimit  bool
}

var rootCmd = &cobra.Command{
	Use:   "termdeck-server",
	Short: "Multi-terminal PTY backend",
	Long: `termdeck-server runs shells on pseudo-terminals and serves them to the
TermDeck UI over REST and websockets.

Terminals are grouped by project scope; the active terminal, view mode and
grid layout of each scope are saved and restored on switch.

Environment variables configure every option; flags override them.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.host, "host", "", "listen host (HOST)")
	f.StringVarP(&flags.port, "port", "p", "", "listen port (PORT)")
	f.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	f.BoolVar(&flags.dev, "dev", false, "colored console logs (LOG_DEV, default when attached to a terminal)")
	f.IntVar(&flags.maxTerminals, "max-terminals", 0, "live terminal cap, at most 9 (MAX_TERMINALS)")
	f.StringVar(&flags.shell, "shell", "", "shell for new terminals (TERMINAL_SHELL)")
	f.StringVar(&flags.persist, "persist", "", "session record backend: file, sqlite or memory (PERSIST_BACKEND)")
	f.StringVar(&flags.persistDir, "persist-dir", "", "directory for session records (PERSIST_DIR)")
	f.StringVar(&flags.keymap, "keymap", "", "yaml or toml keymap file (KEYMAP_PATH)")
	f.BoolVar(&flags.noRateLimit, "no-rate-limit", false, "disable per-client rate limiting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, app.Options{})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

// applyFlags copies explicitly set flags over the environment config
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed

	if set("host") {
		cfg.Server.Host = flags.host
	}
	if set("port") {
		cfg.Server.Port = flags.port
	}
	if set("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	switch {
	case set("dev"):
		cfg.Logging.Development = flags.dev
	case os.Getenv("LOG_DEV") == "":
		cfg.Logging.Development = logging.IsTerminal()
	}
	if set("max-terminals") {
		cfg.Terminal.MaxTerminals = flags.maxTerminals
	}
	if set("shell") {
		cfg.Terminal.Shell = flags.shell
	}
	if set("persist") {
		cfg.Persist.Backend = flags.persist
	}
	if set("persist-dir") {
		cfg.Persist.Dir = flags.persistDir
	}
	if set("keymap") {
		cfg.Keymap.Path = flags.keymap
	}
	if set("no-rate-limit") {
		cfg.RateLimit.Enabled = !flags.noRateLimit
	}
}
