package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"labtrack/cmd"
	httpadapter "labtrack/internal/adapters/in/http"
	"labtrack/internal/adapters/out/postgres"
	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/database"

	"github.com/labstack/gommon/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "labtrack",
		Short:         "Lab diagnostic order service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("labtrack: %v", err)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool

	command := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the scheduled jobs",
		RunE: func(command *cobra.Command, _ []string) error {
			ctx := command.Context()
			cfg, logger, err := loadConfig(true)
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db, logger)

			if migrate {
				if err := postgres.Migrate(db); err != nil {
					return err
				}
			}

			app, err := cmd.NewCompositionRoot(ctx, cfg, db, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("Failed to close adapters", "error", err)
				}
			}()

			e, err := app.CreateRouter(ctx)
			if err != nil {
				return err
			}
			jobManager, err := app.CreateJobManager()
			if err != nil {
				return err
			}
			if err := jobManager.StartAll(); err != nil {
				return err
			}
			defer jobManager.StopAll()

			return startWebServer(ctx, e, cfg.HTTPPort, logger)
		},
	}
	command.Flags().BoolVar(&migrate, "migrate", false, "Apply the schema before serving")
	return command
}

type webServer interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

func startWebServer(ctx context.Context, e webServer, port string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%s", port)
		logger.Info("Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(command *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(false)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db, logger)

			if err := postgres.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(command.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var at string

	command := &cobra.Command{
		Use:   "sweep",
		Short: "Run the auto-cancel sweep once and print the cancelled orders",
		RunE: func(command *cobra.Command, _ []string) error {
			ctx := command.Context()
			cfg, logger, err := loadConfig(false)
			if err != nil {
				return err
			}

			var checkAt time.Time
			if at != "" {
				if checkAt, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db, logger)

			app, err := cmd.NewCompositionRoot(ctx, cfg, db, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			handler, err := app.CreateAutoCancelOrdersCommandHandler()
			if err != nil {
				return err
			}
			sweep, err := commands.NewAutoCancelOrdersCommand(checkAt, kernel.SystemActor())
			if err != nil {
				return err
			}
			result, err := handler.Handle(ctx, sweep)
			if err != nil {
				return err
			}

			return printSweepReport(command.OutOrStdout(), result)
		},
	}
	command.Flags().StringVar(&at, "at", "", "Evaluate the sweep at this RFC 3339 instant instead of now")
	return command
}

func printSweepReport(w io.Writer, result commands.AutoCancelResult) error {
	fmt.Fprintf(w, "Sweep at %s: %d cancelled, %d failed\n",
		result.CheckTime.Format(time.RFC3339), len(result.CancelledOrderIDs), result.Failed)
	if len(result.CancelledOrderIDs) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Order ID", "Status"})
	for i, id := range result.CancelledOrderIDs {
		if err := table.Append([]string{fmt.Sprint(i + 1), id.String(), "cancelled"}); err != nil {
			return err
		}
	}
	return table.Render()
}

func tokenCmd() *cobra.Command {
	var (
		actor        string
		capabilities []string
		ttl          time.Duration
	)

	command := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token for an actor",
		RunE: func(command *cobra.Command, _ []string) error {
			cfg, err := cmd.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSigningKey == "" {
				return errors.New("JWT_SIGNING_KEY is required")
			}

			actorID := kernel.NewUUID()
			if actor != "" {
				if actorID, err = kernel.UUIDFromString(actor); err != nil {
					return fmt.Errorf("--actor: %w", err)
				}
			}
			caps := make([]kernel.Capability, 0, len(capabilities))
			for _, c := range capabilities {
				caps = append(caps, kernel.Capability(strings.TrimSpace(c)))
			}

			signed, err := httpadapter.IssueToken(httpadapter.JWTConfig{
				SigningKey: []byte(cfg.JWTSigningKey),
				Issuer:     cfg.JWTIssuer,
			}, actorID, caps, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(command.OutOrStdout(), signed)
			return nil
		},
	}
	command.Flags().StringVar(&actor, "actor", "", "Actor UUID, random when empty")
	command.Flags().StringSliceVar(&capabilities, "cap", []string{string(kernel.CapabilityManageLabResults)},
		"Capabilities to grant, comma separated")
	command.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	return command
}

// loadConfig reads and validates the configuration. jsonLogs selects the JSON
// handler used by the long running server; CLI commands log as text.
func loadConfig(jsonLogs bool) (cmd.Config, *slog.Logger, error) {
	cfg, err := cmd.LoadConfig()
	if err != nil {
		return cmd.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cmd.Config{}, nil, err
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler).With("service", "labtrack")
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openDatabase(cfg cmd.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB, logger *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	}
}
