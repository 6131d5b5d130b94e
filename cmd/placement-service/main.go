package main

import (
	"fmt"
	"net/http"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	phttp "github.com/radieske/sports-bet-placement-poc/internal/placement-service/http"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/ledger"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/oddsfeed"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/policy"
	kpub "github.com/radieske/sports-bet-placement-poc/internal/placement-service/producer"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/validate"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/config"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/logger"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Kafka writer (topic ticket_placed)
	writer := kafkago.NewWriter(kafkago.WriterConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		Topic:    cfg.TopicTicketPlaced,
		Balancer: &kafkago.LeastBytes{},
	})
	defer writer.Close()

	// deps
	feed := oddsfeed.NewClient(cfg.OddsAPIBase, cfg.OddsAPIKey, cfg.OddsAPIRegions, log)
	validator := validate.New(feed, policy.NewEngine(), log)
	lcli := ledger.New(cfg.LedgerURL)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicTicketPlaced)

	// HTTP público
	api := phttp.NewServer(log, validator, lcli, publ)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health (sem dependência stateful aqui: healthz é sempre ok)
	metrics.StartMetricsServer(cfg.MetricsPort, nil)
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("placement-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
