package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/odds-catalog/cache"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/oddsfeed"
)

// Mercados exibidos na listagem de destaque (mesma seleção do app).
var featuredMarkets = []string{"h2h", "totals", "spreads"}

// API serve a navegação de odds pro cliente: visão otimista, cacheada por
// alguns segundos. A fonte da verdade no commit continua sendo o
// placement-service, que re-busca tudo fresco.
type API struct {
	Log   *zap.Logger
	Feed  *oddsfeed.Client
	Cache *cache.Cache
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Get("/v1/sports/{sportKey}/events", a.listEvents)
	r.Get("/v1/sports/{sportKey}/events/{id}/markets", a.eventMarkets)
	return r
}

// listEvents devolve os eventos em destaque de um esporte com os mercados básicos.
func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	sportKey := chi.URLParam(r, "sportKey")

	var fromCache []model.MarketSnapshot
	if ok, _ := a.Cache.GetSport(r.Context(), sportKey, &fromCache); ok {
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	snaps, err := a.Feed.FetchSportOdds(r.Context(), sportKey, featuredMarkets)
	if err != nil {
		a.Log.Warn("fetch sport odds", zap.String("sportKey", sportKey), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	_ = a.Cache.SetSport(r.Context(), sportKey, snaps)
	writeJSON(w, http.StatusOK, snaps)
}

// eventMarkets devolve um evento enriquecido com os mercados adicionais.
func (a *API) eventMarkets(w http.ResponseWriter, r *http.Request) {
	sportKey := chi.URLParam(r, "sportKey")
	eventID := chi.URLParam(r, "id")

	var fromCache model.MarketSnapshot
	if ok, _ := a.Cache.GetEvent(r.Context(), sportKey, eventID, &fromCache); ok {
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	snap, err := a.Feed.FetchEventMarkets(r.Context(), sportKey, eventID, oddsfeed.EventMarkets)
	if err != nil {
		a.Log.Warn("fetch event markets", zap.String("eventId", eventID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	_ = a.Cache.SetEvent(r.Context(), sportKey, eventID, snap)
	writeJSON(w, http.StatusOK, snap)
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
