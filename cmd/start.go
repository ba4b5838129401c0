package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stash-ingest/core/config"
	"stash-ingest/core/feed"
	"stash-ingest/core/loader"
	"stash-ingest/core/logger"
	"stash-ingest/core/metrics"
	"stash-ingest/core/middleware/auth"
	"stash-ingest/core/middleware/rayid"
	"stash-ingest/feature/detector"
	"stash-ingest/feature/ingest"
	"stash-ingest/feature/modifier"
	"stash-ingest/feature/output"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingestion service",
	Long: `Loads the modifier catalog, resumes the feed from the last committed cursor and
ingests until interrupted. The status server is started when server.enabled is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 3. Optional backends (cursor database, object storage)
		b, err := openBackends(ctx, cfg, logg)
		if err != nil {
			return err
		}
		defer b.close()

		m := metrics.New()

		// 4. Domain components
		client, err := feed.NewClient(cfg.Feed, nil, logg, m)
		if err != nil {
			return &ingest.FatalConfigurationError{Reason: "invalid feed configuration", Err: err}
		}

		cursors, err := b.cursorStore(ctx, cfg)
		if err != nil {
			return err
		}

		catalog := modifier.NewCatalog(modifier.NewHTTPLoader(cfg.Output.BaseURL, cfg.Catalog), logg, m)
		if err := catalog.Init(ctx); err != nil {
			return &ingest.FatalConfigurationError{Reason: "modifier catalog unavailable", Err: err}
		}
		current := catalog.Current()
		logg.Info("Modifier catalog loaded",
			zap.Int("templates", current.Templates),
			zap.Int("static", current.Static()),
			zap.Int("dynamic", current.Dynamic()),
		)

		pipeline, err := detector.NewPipeline(cfg.Detector, cfg.Dedup, logg, m)
		if err != nil {
			return &ingest.FatalConfigurationError{Reason: "invalid detector configuration", Err: err}
		}

		var spool output.Spool
		if b.store != nil {
			spool = output.NewObjectSpool(b.store, cfg.Storage.Bucket, cfg.Output.DeadLetterPrefix)
		}
		writer := output.NewWriter(output.NewSink(cfg.Output, spool, logg, m), cfg.Output.QueueSize, logg)

		service, err := ingest.NewService(ingest.Options{
			Fetcher:       client,
			Stream:        cfg.Stream,
			Cursors:       cursors,
			InitialCursor: cfg.Feed.InitialCursor,
			Catalog:       catalog,
			RefreshEvery:  time.Duration(cfg.Catalog.RefreshMinutes) * time.Minute,
			Pipeline:      pipeline,
			Writer:        writer,
			Logger:        logg,
			Metrics:       m,
		})
		if err != nil {
			writer.Close()
			return err
		}

		// 5. Status server
		var app *fiber.App
		if cfg.Server.Enabled {
			app = newStatusApp(cfg, logg, m, service)
			go func() {
				logg.Info("Starting status server", zap.String("address", cfg.Server.Address()))
				if err := app.Listen(cfg.Server.Address()); err != nil {
					logg.Error("Status server stopped", zap.Error(err))
				}
			}()
		}

		// 6. Ingest until interrupted
		logg.Info("Starting ingestion", zap.Strings("variants", pipeline.Names()))
		runErr := service.Run(ctx)

		logg.Info("Shutting down, draining writer...", zap.Int64("pending", writer.Pending()))
		writer.Close()
		totals := writer.Totals()
		logg.Info("Writer drained",
			zap.Int("written", totals.Written),
			zap.Int("rejected", totals.Rejected),
			zap.Int("spooled", totals.Spooled),
			zap.Int("lost", totals.Lost),
		)

		if app != nil {
			_ = app.ShutdownWithTimeout(5 * time.Second)
		}

		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		return nil
	},
}

// newStatusApp builds the operator status server.
func newStatusApp(cfg *config.Config, logg *zap.Logger, m *metrics.Metrics, service *ingest.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// RayID first so every log line below carries it
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Debug("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Public: []string{"/health"}}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", m.Handler())

	mgr := loader.NewManager()
	mgr.Register(ingest.NewFeature(service))
	if err := mgr.LoadAll(app); err != nil {
		logg.Error("Failed to load features", zap.Error(err))
	}
	return app
}

func init() {
	RootCmd.AddCommand(startCmd)
}
