package dto

import "github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"

// PlaceTicketResponse devolve o bilhete aceito com as seleções re-resolvidas
// (preços vivos), nunca os preços que o cliente submeteu.
type PlaceTicketResponse struct {
	BetID        string                    `json:"bet_id"`
	CombinedOdds float64                   `json:"combined_odds"`
	PotentialWin float64                   `json:"potential_win"`
	Selections   []model.ResolvedSelection `json:"selections"`
}

// ErrorResponse carrega o código fechado mais contexto pro chamador decidir
// entre re-tentar com odds frescas ou desistir.
type ErrorResponse struct {
	Error         string  `json:"error"`
	Code          string  `json:"code,omitempty"`
	EventID       string  `json:"eventId,omitempty"`
	Market        string  `json:"market,omitempty"`
	SportKey      string  `json:"sportKey,omitempty"`
	RequestedOdds float64 `json:"requestedOdds,omitempty"`
	CurrentOdds   float64 `json:"currentOdds,omitempty"`
}
