package events

// TicketSelection é uma perna do bilhete já re-resolvida contra o mercado vivo.
type TicketSelection struct {
	EventID      string   `json:"event_id"`
	SportKey     string   `json:"sport_key"`
	League       string   `json:"league,omitempty"`
	HomeTeam     string   `json:"home_team,omitempty"`
	AwayTeam     string   `json:"away_team,omitempty"`
	Market       string   `json:"market"`
	Outcome      string   `json:"outcome"`
	Odds         float64  `json:"odds"`
	Point        *float64 `json:"point,omitempty"`
	CommenceTime string   `json:"commence_time,omitempty"`
}

// Evento publicado no tópico "ticket_placed" após a liquidação no ledger.
type TicketPlaced struct {
	TicketID     string            `json:"ticket_id"`
	UserID       string            `json:"user_id"`
	StakeCents   int64             `json:"stake_cents"`
	Currency     string            `json:"currency"`
	CombinedOdds float64           `json:"combined_odds"`
	PotentialWin float64           `json:"potential_win"`
	Selections   []TicketSelection `json:"selections"`
	TsUnixMs     int64             `json:"ts_unix_ms"`
}
