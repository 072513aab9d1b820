package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ShopFront/internal/cart"
	"ShopFront/internal/catalog"
	"ShopFront/internal/config"
	"ShopFront/internal/session"
	"ShopFront/internal/storefront"
	"ShopFront/pkg/kit"
)

const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	service := "storefront"
	log := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	store, err := buildStore(cfg, log)
	if err != nil {
		log.Fatal("catalog store init failed", zap.Error(err))
	}

	carts := cart.NewService(store, cfg.Session.TTL)
	stopJanitor := carts.StartJanitor(janitorInterval)
	defer stopJanitor()

	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)

	h := storefront.NewHandler(
		storefront.Deps{
			Catalog:  store,
			Carts:    carts,
			Sessions: sessions,
			Log:      log,
		},
		storefront.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       prometheus.NewRegistry(),
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
			RateLimit:      kit.NewIPRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window),
		},
	)

	srvCfg := kit.ServerConfig{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:       cfg.Server.Timeout.Read,
		WriteTimeout:      cfg.Server.Timeout.Write,
		IdleTimeout:       cfg.Server.Timeout.Idle,
		ReadHeaderTimeout: cfg.Server.Timeout.ReadHeader,
	}

	if err := kit.RunHTTPServer(srvCfg, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func buildStore(cfg config.Config, log *zap.Logger) (catalog.Store, error) {
	if cfg.Catalog.Database != "" {
		db, err := sql.Open("pgx", cfg.Catalog.Database)
		if err != nil {
			return nil, err
		}
		log.Info("using postgres catalog store")
		return catalog.NewPostgresStore(db), nil
	}

	log.Info("using file catalog store", zap.String("path", cfg.Catalog.File))
	return catalog.NewFileStore(cfg.Catalog.File, log), nil
}
