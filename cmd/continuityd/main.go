package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dd0wney/cluso-continuity/pkg/app"
	"github.com/dd0wney/cluso-continuity/pkg/config"
	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/metrics"
	"github.com/dd0wney/cluso-continuity/pkg/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("CONTINUITY_CONFIG"), "Path to YAML config file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before the environment is read")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "continuityd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	// A missing .env is normal outside development.
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
	logging.SetDefaultLogger(logger)
	logger.Info("continuity engine starting",
		logging.String("version", version),
		logging.String("backend", cfg.Graph.Backend))

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger, metrics.DefaultRegistry())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("close failed", logging.Error(err))
		}
	}()

	apiServer := a.APIServer(version)
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	go apiServer.RunSystemMetrics(metricsCtx, 10*time.Second)

	gs := server.NewGracefulServer(
		apiServer.NewHTTPServer(cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		cfg.Server.ShutdownTimeout,
		logger)
	gs.SetConfigReloadFunc(func() error {
		next, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.SetLevel(logging.ParseLevel(next.Logging.Level))
		logger.Info("log level reloaded", logging.String("level", logger.GetLevel().String()))
		return nil
	})

	return gs.Run(ctx)
}
