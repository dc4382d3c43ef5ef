package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/datalab/coverage/internal/config"
	"github.com/datalab/coverage/internal/domain/report"
	"github.com/datalab/coverage/internal/platform/db"
	"github.com/datalab/coverage/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "coverage-report",
		Short: "Dataset coverage and freshness reporting",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(datasetsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return logger
}

func newService(ctx context.Context, logger zerolog.Logger) (*report.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}

	repo := report.NewPGRepository(pool)
	svc := report.NewService(repo, report.Params{
		Start:              cfg.Start(),
		End:                cfg.End(),
		Rule:               cfg.Rule(),
		PopAdjust:          cfg.PopAdjust(),
		RedactionThreshold: cfg.RedactionThreshold,
		RedactionMarker:    cfg.RedactionMarker,
	}, logger)

	return svc, pool.Close, nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a report and write it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			logger := newLogger()
			ctx := context.Background()

			svc, closePool, err := newService(ctx, logger)
			if err != nil {
				return err
			}
			defer closePool()

			rep, err := svc.Generate(ctx)
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}

			data, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			data = append(data, '\n')

			if out == "" || out == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			logger.Info().Str("path", out).Str("run_id", rep.RunID.String()).Msg("report written")
			return nil
		},
	}
	cmd.Flags().String("out", "-", "Output path for the report JSON (- for stdout)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	repo := report.NewPGRepository(pool)
	svc := report.NewService(repo, report.Params{
		Start:              cfg.Start(),
		End:                cfg.End(),
		Rule:               cfg.Rule(),
		PopAdjust:          cfg.PopAdjust(),
		RedactionThreshold: cfg.RedactionThreshold,
		RedactionMarker:    cfg.RedactionMarker,
	}, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(60 * time.Second))
	e.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	handler := report.NewHandler(svc, pool)
	handler.RegisterRoutes(e)
	e.GET("/healthz/db", db.HealthHandler(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func datasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the registered datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, ds := range report.Datasets {
				mode := "all events"
				if ds.FirstEventOnly {
					mode = "first event per patient"
				}
				fmt.Printf("%-24s %-32s %s\n", ds.ID, ds.Name, mode)
			}
			return nil
		},
	}
}
