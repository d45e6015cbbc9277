package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"finboard/internal/auth"
	"finboard/internal/config"
	"finboard/internal/httpserver"
	"finboard/internal/logging"
	"finboard/internal/market"
	"finboard/internal/metrics"
	"finboard/internal/sentiment"
	"finboard/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "finboard",
		Short:         "Market dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				return os.Setenv("FINBOARD_CONFIG", configPath)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context())
		},
	})
	return root
}

func bootstrap(ctx context.Context) (config.Config, *logrus.Logger, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return config.Config{}, nil, nil, err
	}
	logger := logging.New(cfg.LogLevel)

	backend := "sqlite"
	if cfg.UsesPostgres() {
		backend = "postgres"
	}
	logger.WithField("backend", backend).Info("opening store")
	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.WithError(err).Error("open store")
		return cfg, logger, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		logger.WithError(err).Error("migrate store")
		return cfg, logger, nil, err
	}
	logger.WithField("store", st.Dialect()).Info("store ready")
	return cfg, logger, st, nil
}

func runMigrate(ctx context.Context) error {
	_, _, st, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	return st.Close()
}

func runServe(ctx context.Context) error {
	cfg, logger, st, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.DefaultSecret() {
		logger.Warn("SECRET_KEY is the development default; sessions are forgeable")
	}

	authSvc := auth.NewService(st, auth.Options{Secret: cfg.SecretKey, SessionTTL: cfg.SessionTTL})
	if cfg.UsersPath != "" {
		n, err := authSvc.SeedFromFile(ctx, cfg.UsersPath)
		if err != nil {
			logger.WithError(err).Error("seed users")
			return err
		}
		logger.WithField("users", n).Info("seeded users")
	}

	kw := sentiment.DefaultKeywords
	if cfg.KeywordsPath != "" {
		if kw, err = sentiment.LoadKeywords(cfg.KeywordsPath); err != nil {
			logger.WithError(err).Error("load keywords")
			return err
		}
	}
	scorer, err := sentiment.NewScorer(kw)
	if err != nil {
		logger.WithError(err).Error("build scorer")
		return err
	}

	m := metrics.New()
	if cfg.FinnhubAPIKey == "" {
		logger.Warn("FINNHUB_API_KEY not set; market endpoints serve placeholders")
	}
	client := market.NewClient(market.Options{
		BaseURL:  cfg.FinnhubBaseURL,
		APIKey:   cfg.FinnhubAPIKey,
		Timeout:  cfg.UpstreamTimeout,
		Rate:     cfg.UpstreamRate,
		Burst:    cfg.UpstreamBurst,
		Logger:   logger,
		Observer: m,
	})

	handler := httpserver.NewRouter(httpserver.Deps{
		Logger:  logger,
		Store:   st,
		Auth:    authSvc,
		Cookies: auth.CookieWriter{Secure: cfg.CookieSecure, TTL: cfg.SessionTTL},
		Market:  client,
		Scorer:  scorer,
		Metrics: m,

		AllowedOrigins: cfg.AllowedOrigins,
	})
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("http server")
		}
		return err
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutdown requested")
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("shutdown")
		return err
	}
	return nil
}
