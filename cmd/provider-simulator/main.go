package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/shared/config"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/logger"
	"github.com/radieske/sports-bet-placement-poc/internal/shared/metrics"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Métricas Prometheus para conexões WS e requisições de odds servidas
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "provider_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	oddsRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_odds_requests_total",
		Help: "Requisições de odds servidas, por endpoint",
	}, []string{"endpoint"})
)

// Mercados que cada endpoint aceita; pedir fora disso rende o 422 com a
// lista rejeitada, igual ao provedor real.
var (
	sportMarkets = map[string]bool{
		"h2h": true, "h2h_3_way": true, "totals": true, "spreads": true, "draw_no_bet": true,
	}
	eventMarkets = map[string]bool{
		"h2h": true, "h2h_3_way": true, "totals": true, "spreads": true,
		"draw_no_bet": true, "btts": true, "alternate_totals": true,
	}
)

// shape de resposta no formato the-odds-api v4
type wireOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

type wireMarket struct {
	Key      string        `json:"key"`
	Outcomes []wireOutcome `json:"outcomes"`
}

type wireBookmaker struct {
	Key     string       `json:"key"`
	Title   string       `json:"title"`
	Markets []wireMarket `json:"markets"`
}

type wireEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	SportTitle   string          `json:"sport_title"`
	CommenceTime time.Time       `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []wireBookmaker `json:"bookmakers,omitempty"`
}

// simEvent é um evento do catálogo fixo, com preços que derivam a cada tick.
type simEvent struct {
	wireEvent
	markets map[string][]wireOutcome
}

func pt(v float64) *float64 { return &v }

// buildCatalog monta as partidas simuladas com kickoffs futuros relativos ao boot.
func buildCatalog(now time.Time) []*simEvent {
	mk := func(id, sportKey, sportTitle, home, away string, commence time.Time) *simEvent {
		return &simEvent{
			wireEvent: wireEvent{
				ID: id, SportKey: sportKey, SportTitle: sportTitle,
				CommenceTime: commence, HomeTeam: home, AwayTeam: away,
			},
			markets: map[string][]wireOutcome{
				"h2h": {
					{Name: home, Price: rnd(1.60, 2.60)},
					{Name: "Draw", Price: rnd(3.00, 4.00)},
					{Name: away, Price: rnd(2.20, 4.50)},
				},
				"h2h_3_way": {
					{Name: home, Price: rnd(1.60, 2.60)},
					{Name: "Draw", Price: rnd(3.00, 4.00)},
					{Name: away, Price: rnd(2.20, 4.50)},
				},
				"totals": {
					{Name: "Over 2.5", Price: rnd(1.70, 2.10), Point: pt(2.5)},
					{Name: "Under 2.5", Price: rnd(1.70, 2.10), Point: pt(2.5)},
				},
				"spreads": {
					{Name: home, Price: rnd(1.80, 2.00), Point: pt(-1.5)},
					{Name: away, Price: rnd(1.80, 2.00), Point: pt(1.5)},
				},
				"draw_no_bet": {
					{Name: home, Price: rnd(1.30, 1.90)},
					{Name: away, Price: rnd(1.90, 3.20)},
				},
			},
		}
	}
	return []*simEvent{
		mk("EPL_001", "soccer_epl", "EPL", "Arsenal", "Chelsea", now.Add(3*time.Hour)),
		mk("EPL_002", "soccer_epl", "EPL", "Manchester City", "Liverpool", now.Add(26*time.Hour)),
		mk("EPL_003", "soccer_epl", "EPL", "Newcastle United", "Everton", now.Add(49*time.Hour)),
		mk("LIGA_001", "soccer_spain_la_liga", "La Liga", "Real Madrid", "Valencia", now.Add(5*time.Hour)),
		mk("LIGA_002", "soccer_spain_la_liga", "La Liga", "Barcelona", "Sevilla", now.Add(28*time.Hour)),
	}
}

// tick publicado no /ws a cada deriva de preço
type priceTick struct {
	EventID   string        `json:"event_id"`
	Market    string        `json:"market"`
	Outcomes  []wireOutcome `json:"outcomes"`
	UpdatedAt time.Time     `json:"updated_at"`
	Source    string        `json:"source"`
}

type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes WS e o broadcast dos ticks.
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{clients: make(map[string]*clientConn), log: log}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		}
	}
}

// server guarda o catálogo e o estado mutável de preços.
type server struct {
	log    *zap.Logger
	hub    *hub
	mu     sync.RWMutex
	events []*simEvent
}

// drift move cada preço até ±2% e transmite os ticks pros clientes WS.
func (s *server) drift() {
	s.mu.Lock()
	var ticks []priceTick
	now := time.Now().UTC()
	for _, ev := range s.events {
		for key, outcomes := range ev.markets {
			for i := range outcomes {
				p := outcomes[i].Price * rnd(0.98, 1.02)
				if p < 1.01 {
					p = 1.01
				}
				outcomes[i].Price = float64(int(p*100)) / 100
			}
			ticks = append(ticks, priceTick{
				EventID: ev.ID, Market: key, Outcomes: outcomes,
				UpdatedAt: now, Source: "provider-simulator",
			})
		}
	}
	s.mu.Unlock()

	for _, t := range ticks {
		s.hub.broadcast(t)
	}
}

// render monta a resposta wire de um evento só com os mercados pedidos.
func (s *server) render(ev *simEvent, requested []string) wireEvent {
	out := ev.wireEvent
	bk := wireBookmaker{Key: "simbook", Title: "SimBook"}
	for _, key := range requested {
		outcomes, ok := ev.markets[key]
		if !ok {
			continue
		}
		cp := make([]wireOutcome, len(outcomes))
		copy(cp, outcomes)
		bk.Markets = append(bk.Markets, wireMarket{Key: key, Outcomes: cp})
	}
	out.Bookmakers = []wireBookmaker{bk}
	return out
}

// checkMarkets separa as chaves pedidas das rejeitadas pelo endpoint.
func checkMarkets(param string, supported map[string]bool) (requested, unsupported []string) {
	for _, key := range strings.Split(param, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if supported[key] {
			requested = append(requested, key)
		} else {
			unsupported = append(unsupported, key)
		}
	}
	return requested, unsupported
}

func (s *server) sportOdds(w http.ResponseWriter, r *http.Request) {
	oddsRequests.WithLabelValues("sport").Inc()
	sportKey := chi.URLParam(r, "sportKey")

	requested, unsupported := checkMarkets(r.URL.Query().Get("markets"), sportMarkets)
	if len(unsupported) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"message": "Markets not supported by this endpoint: " + strings.Join(unsupported, ", "),
		})
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []wireEvent{}
	for _, ev := range s.events {
		if ev.SportKey == sportKey {
			out = append(out, s.render(ev, requested))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) eventOdds(w http.ResponseWriter, r *http.Request) {
	oddsRequests.WithLabelValues("event").Inc()
	sportKey := chi.URLParam(r, "sportKey")
	eventID := chi.URLParam(r, "eventID")

	requested, unsupported := checkMarkets(r.URL.Query().Get("markets"), eventMarkets)
	if len(unsupported) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"message": "Markets not supported by this endpoint: " + strings.Join(unsupported, ", "),
		})
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.SportKey == sportKey && ev.ID == eventID {
			writeJSON(w, http.StatusOK, []wireEvent{s.render(ev, requested)})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "event not found"})
}

func (s *server) ws(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	id := fmt.Sprintf("%d", time.Now().UnixNano())
	c := &clientConn{id: id, conn: conn}
	s.hub.add(c)

	// mantém a conexão viva e remove o cliente ao desconectar
	go func() {
		defer func() {
			s.hub.remove(id)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func rnd(min, max float64) float64 {
	return (rand.Float64() * (max - min)) + min
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, oddsRequests)

	s := &server{
		log:    log,
		hub:    newHub(log),
		events: buildCatalog(time.Now().UTC()),
	}

	// Deriva os preços e transmite ticks a cada 3 segundos
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			s.drift()
		}
	}()

	r := chi.NewRouter()
	r.Get("/v4/sports/{sportKey}/odds", s.sportOdds)
	r.Get("/v4/sports/{sportKey}/events/{eventID}/odds", s.eventOdds)
	r.Get("/ws", s.ws)

	metrics.StartMetricsServer(cfg.MetricsPort, nil)

	addr := ":" + cfg.HTTPPort
	log.Info("provider simulator running",
		zap.String("addr", addr),
		zap.String("paths", "/v4/...,/ws"),
	)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
