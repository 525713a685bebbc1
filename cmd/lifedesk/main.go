// Package main is the LifeDesk entry point: a personal workspace server
// with an assistant that reads and, with confirmation, changes calendar
// events, kanban tasks, notes, and journal entries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lifedesk/lifedesk/internal/actions"
	"github.com/lifedesk/lifedesk/internal/auth"
	"github.com/lifedesk/lifedesk/internal/bus"
	"github.com/lifedesk/lifedesk/internal/config"
	"github.com/lifedesk/lifedesk/internal/data"
	"github.com/lifedesk/lifedesk/internal/llm"
	"github.com/lifedesk/lifedesk/internal/logging"
	"github.com/lifedesk/lifedesk/internal/modules"
	"github.com/lifedesk/lifedesk/internal/server"
	"github.com/lifedesk/lifedesk/internal/snapshot"
	"github.com/lifedesk/lifedesk/internal/tools"
	"github.com/lifedesk/lifedesk/internal/turn"
)

var (
	version = "0.1.0"
	cfgPath string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lifedesk",
		Short: "LifeDesk - personal workspace with an assistant that asks before it acts",
		Long: `LifeDesk is a local-first personal workspace: calendar, kanban board,
notes, and journal, plus an assistant that answers questions about your
data and proposes changes for you to approve.

Start the server:   lifedesk serve
Show configuration: lifedesk config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.lifedesk/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("LifeDesk v%s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the workspace and assistant server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})

	rootCmd.AddCommand(configCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.LoadFromPath(cfgPath)
	}
	return config.Load()
}

func initLogging(cfg *config.Config) error {
	lc := &logging.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.File,
		Console:  cfg.Logging.Console,
	}
	if verbose {
		lc.Level = "debug"
	}
	return logging.Init(lc)
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := initLogging(cfg); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logging.Component("main")

	db, err := data.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	workspace := modules.NewWorkspace(db)
	registry := tools.NewRegistry()
	workspace.RegisterTools(registry)

	provider, err := llm.NewProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("configure provider: %w", err)
	}
	client := llm.NewClient(provider, llm.ClientConfig{
		Model:       cfg.Assistant.Model,
		Temperature: cfg.Assistant.Temperature,
		Timeout:     cfg.Assistant.CompletionTimeout,
	})

	coordinator := turn.NewCoordinator(turn.Config{
		Registry:     registry,
		Store:        actions.NewSQLiteStore(db.DB(), cfg.Assistant.PendingActionTTL),
		Client:       client,
		Snapshots:    snapshot.NewBuilder(registry, cfg.Assistant.ContextBudget),
		Sync:         modules.NewSynchronizer(workspace),
		MaxSteps:     cfg.Assistant.MaxSteps,
		HistoryLimit: cfg.Assistant.HistoryLimit,
		Log:          logging.Component("turn"),
	})

	events := bus.New()
	defer events.Close()

	authSvc := auth.NewService(auth.NewStore(db))

	log.Info().
		Str("version", version).
		Str("provider", client.ProviderName()).
		Str("data_dir", cfg.Data.Dir).
		Msg("lifedesk starting")

	srv := server.New(cfg.Server, coordinator, authSvc, events, version)
	return srv.Start(ctx)
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("server.addr:                  %s\n", cfg.Server.Addr)
			fmt.Printf("assistant.provider:           %s\n", cfg.Assistant.Provider)
			fmt.Printf("assistant.model:              %s\n", cfg.Assistant.Model)
			fmt.Printf("assistant.max_steps:          %d\n", cfg.Assistant.MaxSteps)
			fmt.Printf("assistant.completion_timeout: %s\n", cfg.Assistant.CompletionTimeout)
			fmt.Printf("assistant.context_budget:     %d\n", cfg.Assistant.ContextBudget)
			fmt.Printf("assistant.pending_action_ttl: %s\n", cfg.Assistant.PendingActionTTL)
			fmt.Printf("data.dir:                     %s\n", cfg.Data.Dir)
			fmt.Printf("logging.level:                %s\n", cfg.Logging.Level)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.Default().SaveToPath(path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	})

	return cmd
}
