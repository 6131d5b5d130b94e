package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	lhttp "github.com/radieske/sports-bet-placement-poc/internal/ledger-simulator/http"
	"github.com/radieske/sports-bet-placement-poc/internal/ledger-simulator/repo"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/config"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/db"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/logger"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	api := lhttp.NewServer(log, repo.NewPostgres(pg))
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("ledger-simulator listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
