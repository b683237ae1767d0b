package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tazuo/autoloot/internal/config"
	"github.com/tazuo/autoloot/internal/session"
	"github.com/tazuo/autoloot/internal/world"
)

// cli carries the flag values and the configuration shared by every
// subcommand.
type cli struct {
	dataDir string
	profile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "lootctl",
		Short: "Manage auto-loot and grid-highlight rules",
		Long: `lootctl manages the auto-loot list, the grid-highlight rules, the settings
and friends databases of a character profile, and serves the loot engine
over HTTP for a game client host.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "Data directory (default $DATA_DIR or $XDG_DATA_HOME/autoloot)")
	root.PersistentFlags().StringVar(&c.profile, "profile", "", "Character profile as account/shard/character (default $PROFILE)")

	root.AddCommand(
		newRulesCmd(c),
		newSettingsCmd(c),
		newFriendsCmd(c),
		newJournalCmd(c),
		newServeCmd(c),
		newHealthCmd(c),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.Storage.DataDir = c.dataDir
	}
	if c.profile != "" {
		cfg.Storage.Profile = c.profile
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	c.cfg = cfg

	setupLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	log.Debug().Str("command", cmd.Name()).Str("profile", cfg.Storage.Profile).Msg("Command started")
	return nil
}

// offlineSession builds a session that is never started: the rule stores
// and lazy databases are used without ticking the engine.
func (c *cli) offlineSession() *session.Session {
	return session.New(c.cfg, world.NewMemory(), &world.RecordingMover{})
}

// setupLogger applies LOG_LEVEL and LOG_FORMAT. Without an explicit
// format, console output is used when out is a terminal.
func setupLogger(level, format string, out *os.File) {
	zerolog.TimeFieldFormat = time.RFC3339

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = newLogger(format, out, isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()))
}

func newLogger(format string, out io.Writer, terminal bool) zerolog.Logger {
	if format == "text" || (format == "" && terminal) {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// parseSerial accepts decimal or 0x-prefixed hex serials.
func parseSerial(raw string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid serial %q: %w", raw, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid serial %q: must not be zero", raw)
	}
	return uint32(n), nil
}

func closeSession(s *session.Session) {
	if err := s.Stop(); err != nil {
		log.Warn().Err(err).Msg("Failed to close stores")
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
