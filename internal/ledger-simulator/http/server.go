package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/ledger-simulator/dto"
	"github.com/radieske/sports-bet-placement-poc/internal/ledger-simulator/repo"
)

// Repo define a interface de liquidação usada pelo handler HTTP
type Repo interface {
	PlaceBet(ctx context.Context, userID string, stakeCents int64, currency, externalRef string, selections []repo.TicketSelection) (string, error)
	Deposit(ctx context.Context, userID string, amountCents int64) (int64, error)
	Balance(ctx context.Context, userID string) (int64, error)
}

// Server expõe o contrato do gateway de liquidação (ledger simulado)
type Server struct {
	log  *zap.Logger
	repo Repo
}

func NewServer(log *zap.Logger, r Repo) *Server { return &Server{log: log, repo: r} }

// Router retorna o mux HTTP com as rotas do ledger
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ledger/place-bet", s.placeBet) // POST
	mux.HandleFunc("/ledger/deposit", s.deposit)    // POST (seed de dev)
	mux.HandleFunc("/ledger/balance", s.balance)    // GET ?userId=...
	return mux
}

// placeBet executa a operação única do contrato: débito + persistência atômicos
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.UserID == "" || req.ExternalRef == "" || req.StakeCents <= 0 || len(req.Selections) == 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}

	selections := make([]repo.TicketSelection, 0, len(req.Selections))
	for _, sel := range req.Selections {
		selections = append(selections, repo.TicketSelection{
			EventID:      sel.EventID,
			SportKey:     sel.SportKey,
			League:       sel.League,
			HomeTeam:     sel.HomeTeam,
			AwayTeam:     sel.AwayTeam,
			Market:       sel.Market,
			Outcome:      sel.Outcome,
			Odds:         sel.Odds,
			Point:        sel.Point,
			CommenceTime: sel.CommenceTime,
		})
	}

	ticketID, err := s.repo.PlaceBet(r.Context(), req.UserID, req.StakeCents, req.Currency, req.ExternalRef, selections)
	if err != nil {
		switch err {
		case repo.ErrInsufficientFunds:
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "insufficient_funds"})
		case repo.ErrWalletNotFound:
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "wallet not found"})
		default:
			s.log.Error("place bet", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.PlaceBetResponse{TicketID: ticketID, Status: "PLACED"})
}

// deposit credita saldo na carteira (só pra ambiente de desenvolvimento)
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}
	balance, err := s.repo.Deposit(r.Context(), req.UserID, req.AmountCents)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: req.UserID, BalanceCents: balance})
}

// balance retorna o saldo atual do usuário
func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "userId required"})
		return
	}
	balance, err := s.repo.Balance(r.Context(), userID)
	if err != nil {
		if err == repo.ErrWalletNotFound {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "wallet not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: userID, BalanceCents: balance})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
