package dto

type PlaceBetResponse struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"` // PLACED
}

type BalanceResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
