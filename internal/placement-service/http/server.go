package httpapi

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/betslip"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/dto"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/ledger"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/validate"
	"github.com/radieske/sports-bet-placement-poc/pkg/contracts/events"
)

// Defaults de política quando a requisição não manda nada.
const (
	defaultCutoffMinutes  = 2
	defaultPriceTolerance = 0.02
	defaultCurrency       = "NGN"
)

var (
	ticketsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placement_tickets_accepted_total",
		Help: "Bilhetes aceitos e liquidados",
	})
	ticketsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_tickets_rejected_total",
		Help: "Bilhetes rejeitados, por código de falha",
	}, []string{"code"})
)

func init() {
	prometheus.MustRegister(ticketsAccepted, ticketsRejected)
}

// Server expõe a API de colocação: propose → re-resolve autoritativo → commit.
type Server struct {
	log   *zap.Logger
	valid *validate.Validator
	ledg  *ledger.Client
	publ  interface {
		PublishTicketPlaced(context.Context, events.TicketPlaced) error
	}
}

func NewServer(log *zap.Logger, v *validate.Validator, l *ledger.Client, p interface {
	PublishTicketPlaced(context.Context, events.TicketPlaced) error
}) *Server {
	return &Server{log: log, valid: v, ledg: l, publ: p}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Post("/v1/tickets", s.placeTicket)
	return r
}

func (s *Server) placeTicket(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "userId required"})
		return
	}

	// validação de entrada: rejeita antes de qualquer chamada de rede
	if req.Stake <= 0 || math.IsNaN(req.Stake) || math.IsInf(req.Stake, 0) {
		s.reject(w, &model.PlacementError{Code: model.CodeInvalidStake, Message: "invalid stake"})
		return
	}
	if len(req.Selections) == 0 {
		s.reject(w, &model.PlacementError{Code: model.CodeNoSelections, Message: "no selections"})
		return
	}

	pol := model.PlacementPolicy{
		AllowLive:      true,
		CutoffMinutes:  defaultCutoffMinutes,
		PriceTolerance: defaultPriceTolerance,
	}
	if req.AllowLive != nil {
		pol.AllowLive = *req.AllowLive
	}
	if req.CutoffMinutes != nil && *req.CutoffMinutes >= 0 {
		pol.CutoffMinutes = *req.CutoffMinutes
	}
	if req.PriceTolerance != nil && *req.PriceTolerance >= 0 {
		pol.PriceTolerance = *req.PriceTolerance
	}

	// 1) Revalidação autoritativa contra o mercado vivo
	resolved, perr := s.valid.Validate(r.Context(), req.Selections, pol)
	if perr != nil {
		s.reject(w, perr)
		return
	}

	// 2) Totais do bilhete recalculados com as odds vivas, nunca as do cliente
	slip := betslip.New()
	for _, sel := range resolved {
		slip.Add(model.Selection(sel))
	}
	slip.SetStake(strconv.FormatFloat(req.Stake, 'f', -1, 64))
	combined := slip.CombinedOdds()
	potential := slip.PotentialWin()

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	stakeCents := int64(math.Round(req.Stake * 100))

	// 3) Liquidação atômica no ledger externo (external_ref = idempotência)
	ticketID, err := s.ledg.PlaceBet(r.Context(), req.UserID, stakeCents, currency, uuid.NewString(), resolved)
	if err != nil {
		if err == ledger.ErrInsufficientFunds {
			ticketsRejected.WithLabelValues("insufficient_funds").Inc()
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "insufficient funds", Code: "insufficient_funds"})
			return
		}
		s.log.Error("ledger place-bet", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	ticketsAccepted.Inc()
	s.log.Info("ticket placed",
		zap.String("ticketId", ticketID),
		zap.String("userId", req.UserID),
		zap.Int("selections", len(resolved)),
		zap.Float64("combinedOdds", combined),
	)

	// 4) Publica ticket_placed (best effort, igual ao resto da plataforma)
	_ = s.publ.PublishTicketPlaced(r.Context(), events.TicketPlaced{
		TicketID:     ticketID,
		UserID:       req.UserID,
		StakeCents:   stakeCents,
		Currency:     currency,
		CombinedOdds: combined,
		PotentialWin: potential,
		Selections:   toEventSelections(resolved),
	})

	writeJSON(w, http.StatusOK, dto.PlaceTicketResponse{
		BetID:        ticketID,
		CombinedOdds: combined,
		PotentialWin: potential,
		Selections:   resolved,
	})
}

func (s *Server) reject(w http.ResponseWriter, perr *model.PlacementError) {
	ticketsRejected.WithLabelValues(perr.Code).Inc()
	status := http.StatusBadRequest
	if perr.Code == model.CodeProviderError {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, dto.ErrorResponse{
		Error:         perr.Message,
		Code:          perr.Code,
		EventID:       perr.EventID,
		Market:        perr.Market,
		SportKey:      perr.SportKey,
		RequestedOdds: perr.RequestedOdds,
		CurrentOdds:   perr.CurrentOdds,
	})
}

func toEventSelections(resolved []model.ResolvedSelection) []events.TicketSelection {
	out := make([]events.TicketSelection, 0, len(resolved))
	for _, sel := range resolved {
		ts := events.TicketSelection{
			EventID:  sel.EventID,
			SportKey: sel.SportKey,
			League:   sel.League,
			HomeTeam: sel.HomeTeam,
			AwayTeam: sel.AwayTeam,
			Market:   sel.Market,
			Outcome:  sel.Outcome,
			Odds:     sel.Odds,
			Point:    sel.Point,
		}
		if !sel.CommenceTime.IsZero() {
			ts.CommenceTime = sel.CommenceTime.UTC().Format(time.RFC3339)
		}
		out = append(out, ts)
	}
	return out
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
