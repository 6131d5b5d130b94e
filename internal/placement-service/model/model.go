package model

import "time"

// Selection é uma perna do bilhete como enviada pelo cliente.
// Preço, ponto e nomes refletem o que o cliente viu — potencialmente stale;
// a identidade pra dedupe é (eventId, market, outcome).
type Selection struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	SportKey     string    `json:"sportKey"`
	League       string    `json:"league,omitempty"`
	Match        string    `json:"match,omitempty"` // rótulo "Home vs Away"
	HomeTeam     string    `json:"homeTeam,omitempty"`
	AwayTeam     string    `json:"awayTeam,omitempty"`
	Market       string    `json:"market"`
	Outcome      string    `json:"outcome"`
	Odds         float64   `json:"odds"`
	Point        *float64  `json:"point,omitempty"`
	CommenceTime time.Time `json:"commenceTime"` // zero = desconhecido
}

// SameBet diz se duas seleções apontam pro mesmo resultado do mesmo mercado.
func (s Selection) SameBet(o Selection) bool {
	return s.EventID == o.EventID && s.Market == o.Market && s.Outcome == o.Outcome
}

// ResolvedSelection é a Selection re-resolvida contra o snapshot fresco:
// preço/ponto vivos e nomes canônicos do provedor.
// É a única forma que chega ao gateway de liquidação.
type ResolvedSelection Selection

// Outcome é uma opção precificada dentro de um mercado.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// Market é uma categoria apostável de um evento (h2h, totals, spreads, ...).
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// MarketSnapshot é a visão pontual dos mercados de um evento, recém-buscada
// do provedor. Vive só durante uma validação; nunca é cacheado entre requisições.
type MarketSnapshot struct {
	EventID      string    `json:"eventId"`
	SportKey     string    `json:"sportKey"`
	SportTitle   string    `json:"sportTitle"`
	CommenceTime time.Time `json:"commenceTime"`
	HomeTeam     string    `json:"homeTeam"`
	AwayTeam     string    `json:"awayTeam"`
	Markets      []Market  `json:"markets"`
}

// PlacementPolicy são as regras de negócio aplicadas por requisição.
type PlacementPolicy struct {
	AllowLive      bool
	CutoffMinutes  int     // janela antes do kickoff em que pré-jogo é recusado
	PriceTolerance float64 // fração em [0,1) de deriva adversa tolerada
}
