package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/syncgate/internal/cache"
	"github.com/dropDatabas3/syncgate/internal/config"
	httpx "github.com/dropDatabas3/syncgate/internal/http"
	"github.com/dropDatabas3/syncgate/internal/http/handlers"
	"github.com/dropDatabas3/syncgate/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/syncgate/internal/jwt"
	"github.com/dropDatabas3/syncgate/internal/license"
	"github.com/dropDatabas3/syncgate/internal/observability/logger"
	"github.com/dropDatabas3/syncgate/internal/rate"
	"github.com/dropDatabas3/syncgate/internal/store"
	"github.com/dropDatabas3/syncgate/internal/store/pg"
	"github.com/dropDatabas3/syncgate/internal/telemetry"
	migrations "github.com/dropDatabas3/syncgate/migrations/postgres"
)

func main() {
	// .env opcional; en prod se usan variables del sistema.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "syncgate",
		Short: "Control plane de autorización y licencias para el engine de replicación",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "ruta del YAML de configuración")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}

	var keyPath string
	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera el seed ed25519 de firma y lo escribe en disco",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := jwtx.Generate(keyPath)
			if err != nil {
				return err
			}
			fmt.Printf("key written to %s (kid=%s)\n", keyPath, kp.KID)
			return nil
		},
	}
	keygenCmd.Flags().StringVar(&keyPath, "out", "syncgate.key", "archivo destino del seed")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el esquema SQL embebido sobre DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), cfgPath)
		},
	}

	root.AddCommand(serveCmd, keygenCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("config: %w", err)
		}
		cfg = config.Default()
	}
	if cfg.Storage.DSN == "" {
		return fmt.Errorf("migrate: falta storage.dsn (o DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		sql, err := migrations.FS.ReadFile(e.Name())
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", e.Name(), err)
		}
		fmt.Printf("applied %s\n", e.Name())
	}
	return nil
}

func serve(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("config: %w", err)
		}
		// Sin archivo: defaults + env (modo dev).
		cfg = config.Default()
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "syncgate",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	// Material de firma: su ausencia es fatal en el arranque, nunca después.
	keys, err := jwtx.Load(cfg.JWT.KeyPath)
	if err != nil {
		return fmt.Errorf("signing key (%s): %w (run `syncgate keygen`)", cfg.JWT.KeyPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := store.Open(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Postgres: pg.Config{
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
			MaxOpenConns:    cfg.Storage.Postgres.MaxConns,
		},
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer repo.Close()

	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if cacheClient != nil {
		defer func() { _ = cacheClient.Close() }()
	}

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, keys, repo)
	issuer.AccessTTL = config.Duration(cfg.JWT.AccessTTL, issuer.AccessTTL)
	issuer.RefreshTTL = config.Duration(cfg.JWT.RefreshTTL, issuer.RefreshTTL)

	registry := license.NewRegistry(repo)
	ingestor := telemetry.NewIngestor(repo, registry)
	aggregator := telemetry.NewAggregator(repo, cacheClient)
	aggregator.SetStaleAfter(config.Duration(cfg.Telemetry.StaleAfter, 10*time.Minute))

	var loginLimiter rate.Limiter
	if cfg.Rate.Enabled && cfg.Cache.Redis.Addr != "" {
		loginLimiter = rate.NewRedisLimiter(
			rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			}),
			"rl:login:",
			cfg.Rate.Login.Limit,
			config.Duration(cfg.Rate.Login.Window, time.Minute),
		)
	}

	var poolFn func() *pgxpool.Pool
	if pgStore, ok := repo.(*pg.Store); ok {
		poolFn = pgStore.Pool
	}
	metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{Pool: poolFn})
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	router := httpx.NewRouter(httpx.RouterDeps{
		Auth:           &handlers.Auth{Store: repo, Issuer: issuer},
		Licenses:       &handlers.Licenses{Registry: registry},
		Admin:          &handlers.Admin{Registry: registry},
		Telemetry:      &handlers.Telemetry{Ingestor: ingestor, Aggregator: aggregator},
		Health:         &handlers.Health{Store: repo, Cache: cacheClient},
		AuthMW:         middlewares.RequireAuth(issuer, repo),
		LoginLimiter:   loginLimiter,
		MetricsHandler: metricsHandler,
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
	})

	srv := httpx.NewServer(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
