package dto

// Selection é a perna já re-resolvida que o placement-service envia: preço
// vivo e nomes canônicos, nunca o que o cliente submeteu.
type Selection struct {
	EventID      string   `json:"eventId"`
	SportKey     string   `json:"sportKey"`
	League       string   `json:"league,omitempty"`
	HomeTeam     string   `json:"homeTeam,omitempty"`
	AwayTeam     string   `json:"awayTeam,omitempty"`
	Market       string   `json:"market"`
	Outcome      string   `json:"outcome"`
	Odds         float64  `json:"odds"`
	Point        *float64 `json:"point,omitempty"`
	CommenceTime string   `json:"commenceTime,omitempty"`
}

// PlaceBetRequest é a operação única do contrato de liquidação.
type PlaceBetRequest struct {
	UserID      string      `json:"userId"`
	StakeCents  int64       `json:"stake_cents"`
	Currency    string      `json:"currency"`
	ExternalRef string      `json:"external_ref"` // chave de idempotência
	Selections  []Selection `json:"selections"`
}

// DepositRequest existe só pra seed de desenvolvimento.
type DepositRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
}
