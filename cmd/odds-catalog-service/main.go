package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	ccache "github.com/radieske/sports-bet-placement-poc/internal/odds-catalog/cache"
	chttp "github.com/radieske/sports-bet-placement-poc/internal/odds-catalog/http"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/oddsfeed"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/cache"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/config"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/logger"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/metrics"
)

// TTL curto: o catálogo é visão otimista, a verdade é do placement-service
const catalogTTL = 30 * time.Second

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Redis
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	feed := oddsfeed.NewClient(cfg.OddsAPIBase, cfg.OddsAPIKey, cfg.OddsAPIRegions, log)

	api := &chttp.API{
		Log:   log,
		Feed:  feed,
		Cache: ccache.New(rdb, catalogTTL),
	}
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	log.Info("odds-catalog-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
