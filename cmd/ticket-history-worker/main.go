package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/shared/config"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/db"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/kafka"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/logger"
	ev "github.com/radieske/sports-bet-placement-poc/pkg/contracts/events"
)

var (
	historyProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ticket_history_processed_total",
		Help: "Eventos ticket_placed materializados no histórico",
	})
	historyFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ticket_history_failed_total",
		Help: "Eventos ticket_placed que foram pra DLQ",
	})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(historyProcessed, historyFailed)

	// Postgres pra materializar o histórico de apostas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: consome ticket_placed pra projeção de histórico
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "ticket-history",
		Topic:    cfg.TopicTicketPlaced,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicTicketPlacedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketPlacedDLQ)
		defer dlqWriter.Close()
	}

	// Servidor HTTP para métricas Prometheus e healthcheck
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			if err := pg.PingContext(ctx); err != nil {
				http.Error(w, "pg", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := ":" + cfg.MetricsPort
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, mux)
	}()

	log.Info("ticket-history-worker started", zap.String("consume", cfg.TopicTicketPlaced))

	ctx := context.Background()

	// Loop principal: consome ticket_placed e grava a linha de histórico
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var placed ev.TicketPlaced
		if jerr := json.Unmarshal(msg.Value, &placed); jerr != nil {
			log.Error("unmarshal ticket_placed", zap.Error(jerr))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
			}
			historyFailed.Inc()
			continue
		}

		if err := insertHistory(ctx, pg, &placed); err != nil {
			log.Error("history insert", zap.String("ticketId", placed.TicketID), zap.Error(err))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, placed.TicketID, msg.Value)
			}
			historyFailed.Inc()
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
			continue
		}
		historyProcessed.Inc()
	}
}

// insertHistory grava a projeção do ticket; ON CONFLICT garante idempotência
// no replay do consumer group.
func insertHistory(ctx context.Context, pg *sql.DB, placed *ev.TicketPlaced) error {
	selections, err := json.Marshal(placed.Selections)
	if err != nil {
		return err
	}
	_, err = pg.ExecContext(ctx, `
		INSERT INTO ticket_history (ticket_id, user_id, stake_cents, currency, combined_odds, potential_win, selections, placed_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
		ON CONFLICT (ticket_id) DO NOTHING`,
		placed.TicketID,
		placed.UserID,
		placed.StakeCents,
		placed.Currency,
		placed.CombinedOdds,
		placed.PotentialWin,
		selections,
		time.UnixMilli(placed.TsUnixMs).UTC(),
	)
	return err
}
