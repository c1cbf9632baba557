package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"EcoFinds/internal/auth"
	"EcoFinds/internal/catalog"
	"EcoFinds/internal/config"
	"EcoFinds/internal/gateway"
	"EcoFinds/internal/listing"
	"EcoFinds/internal/predict"
	"EcoFinds/internal/session"
	"EcoFinds/pkg/kit"
)

const service = "marketd"

func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		kit.NewLogger(service, "info").Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}
	defer st.close()
	store := st.catalog

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	jwt := auth.NewTokenMaker(cfg.JWTSecret)
	sessions := session.NewManager(session.Deps{
		Catalog: store,
		Minter:  listing.NewMinter(),
		Metrics: session.NewMetrics(reg),
		Log:     log,
	}, cfg.TokenTTL)

	h, err := gateway.NewHandler(gateway.Deps{
		Catalog: store,
		Auth: &auth.Server{
			Log:      log,
			Store:    st.users,
			JWT:      jwt,
			Sessions: sessions,
			TokenTTL: cfg.TokenTTL,
		},
		Sessions: &session.Server{
			Sessions:  sessions,
			JWT:       jwt,
			Predictor: predict.NewClient(cfg.PredictURL, cfg.PredictTimeout),
			Log:       log,
		},
		PredictURL: cfg.PredictURL,
	}, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsToken != "",
		MetricsToken:   cfg.MetricsToken,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

type stores struct {
	catalog catalog.Store
	users   auth.UserStore
	close   func()
}

// openStores keeps everything in memory unless DATABASE_URL is set, in
// which case the catalog and accounts live in Postgres.
func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	seed, err := catalog.LoadSeed(cfg.CatalogSeed)
	if err != nil {
		return stores{}, err
	}

	if cfg.DatabaseURL == "" {
		log.Info("stores: in-memory", zap.Int("seed", len(seed)))
		return stores{
			catalog: catalog.NewMemStore(seed),
			users:   auth.NewMemStore(),
			close:   func() {},
		}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	fail := func(err error) (stores, error) {
		_ = db.Close()
		return stores{}, err
	}

	pg := catalog.NewPostgresStore(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		return fail(err)
	}
	seeded, err := pg.SeedIfEmpty(ctx, seed)
	if err != nil {
		return fail(err)
	}

	users := auth.NewPostgresStore(db)
	if err := users.EnsureSchema(ctx); err != nil {
		return fail(err)
	}
	log.Info("stores: postgres", zap.Bool("seeded", seeded))

	return stores{
		catalog: pg,
		users:   users,
		close:   func() { _ = db.Close() },
	}, nil
}
