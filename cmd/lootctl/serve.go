package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tazuo/autoloot/docs"
	"github.com/tazuo/autoloot/internal/api"
	"github.com/tazuo/autoloot/internal/config"
	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/health"
	"github.com/tazuo/autoloot/internal/journal"
	"github.com/tazuo/autoloot/internal/session"
	"github.com/tazuo/autoloot/internal/world"
)

const defaultTick = 50 * time.Millisecond

func newServeCmd(c *cli) *cobra.Command {
	var (
		port int
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the loot engine behind the HTTP control API",
		Long: `serve starts a loot session for the active profile and exposes it over
HTTP. The game client host feeds items and events to /v1/world/items and
/v1/events and collects the requested item moves from /v1/moves/take.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				c.cfg.Server.Port = port
			}
			if tick <= 0 {
				return fmt.Errorf("tick must be positive")
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c.cfg, tick)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default $PORT)")
	cmd.Flags().DurationVar(&tick, "tick", defaultTick, "Engine update interval")
	return cmd
}

// serve runs until ctx is cancelled, then shuts the server down, stops the
// engine and flushes the stores.
func serve(ctx context.Context, cfg *config.Config, tick time.Duration) error {
	w := world.NewMemory()
	mover := &world.RecordingMover{}
	s := session.New(cfg, w, mover)
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	logStartupConfig(cfg)
	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Server.Port)

	checker := newHealthChecker(s)
	router := api.SetupRouter(api.RouterDependencies{
		Engine:         s,
		World:          w,
		Moves:          mover,
		HighlightRules: s.HighlightRules(),
		LootEntries:    s.LootEntries(),
		Health:         checker,
		Metrics:        s.Metrics().Handler(),
	}, api.RouterConfig{
		CORSOrigins:    cfg.Security.CORSOrigins,
		BodyLimit:      cfg.Server.BodyLimit,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitRPS * 2,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		s.Run(runCtx, tick)
	}()

	go func() {
		<-ctx.Done()
		log.Info().Msg("Received shutdown signal, initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := router.App.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during HTTP server shutdown")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Int("port", cfg.Server.Port).Str("addr", addr).Dur("tick", tick).Msg("Starting HTTP server")
	listenErr := router.App.Listen(addr)

	cancelRun()
	<-engineDone
	router.Cleanup()

	stopErr := s.Stop()
	if listenErr != nil {
		return fmt.Errorf("http server: %w", listenErr)
	}
	if stopErr != nil {
		return stopErr
	}
	log.Info().Msg("Graceful shutdown completed")
	return nil
}

func newHealthChecker(s *session.Session) *health.Checker {
	checker := health.NewChecker()
	checker.Register("highlight_rules", func(context.Context) domain.HealthStatus {
		return s.HighlightRules().HealthCheck()
	})
	checker.Register("autoloot_entries", func(context.Context) domain.HealthStatus {
		return s.LootEntries().HealthCheck()
	})
	checker.Register("matcher", func(context.Context) domain.HealthStatus {
		return s.Matcher().HealthCheck()
	})
	checker.Register("settings", func(ctx context.Context) domain.HealthStatus {
		st, err := s.Settings(ctx)
		if err != nil {
			return domain.HealthStatus{Status: domain.HealthStatusUnhealthy, Message: err.Error()}
		}
		return st.HealthCheck(ctx)
	})
	checker.Register("friends", func(ctx context.Context) domain.HealthStatus {
		f, err := s.Friends(ctx)
		if err != nil {
			return domain.HealthStatus{Status: domain.HealthStatusUnhealthy, Message: err.Error()}
		}
		return f.HealthCheck(ctx)
	})
	checker.Register("journal", func(context.Context) domain.HealthStatus {
		if s.Journal() == nil {
			return domain.HealthStatus{Status: domain.HealthStatusDegraded, Message: "loot journal is not open"}
		}
		return domain.HealthStatus{Status: domain.HealthStatusHealthy, Details: map[string]any{"entries": s.Journal().Len()}}
	})
	return checker
}

func logStartupConfig(cfg *config.Config) {
	log.Info().
		Int("server_port", cfg.Server.Port).
		Dur("server_read_timeout", cfg.Server.ReadTimeout).
		Dur("server_write_timeout", cfg.Server.WriteTimeout).
		Int("server_body_limit", cfg.Server.BodyLimit).
		Int("rate_limit_rps", cfg.Server.RateLimitRPS).
		Str("data_dir", cfg.Storage.DataDir).
		Str("profile", cfg.Storage.Profile).
		Bool("autoloot", cfg.Loot.AutoLootEnabled).
		Bool("scavenger", cfg.Loot.ScavengerEnabled).
		Int("auto_open_range", cfg.Loot.AutoOpenRange).
		Dur("action_delay", cfg.Loot.ActionDelay).
		Strs("cors_origins", cfg.Security.CORSOrigins).
		Str("logging_level", cfg.Logging.Level).
		Msg("Configuration loaded successfully")
}

func newHealthCmd(c *cli) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query /health of a running server and exit non-zero unless it is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = c.cfg.Server.Port
			}
			return performHealthCheck(cmd, fmt.Sprintf("http://localhost:%d/health", port))
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Server port (default $PORT)")
	return cmd
}

func performHealthCheck(cmd *cobra.Command, url string) error {
	client := &http.Client{Timeout: 3 * time.Second}

	req, err := http.NewRequestWithContext(commandContext(cmd), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: HTTP %d", resp.StatusCode)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Health check passed")
	return nil
}

func newJournalCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the most recent loot actions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(c.cfg.JournalPath(), journal.DefaultMaxEntries)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			entries, err := j.Recent(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "0x%08X  %-13s  %s\n", e.Serial, e.Outcome, humanize.Time(e.At))
			}
			fmt.Fprintf(out, "%s of %s entries\n", humanize.Comma(int64(len(entries))), humanize.Comma(int64(j.Len())))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries; 0 prints all")
	return cmd
}
