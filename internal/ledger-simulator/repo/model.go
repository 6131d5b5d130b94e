package repo

import "time"

// Ticket é o bilhete persistido no Postgres.
type Ticket struct {
	ID          string
	UserID      string
	StakeCents  int64
	Currency    string
	ExternalRef string
	Status      string
	CreatedAt   time.Time
}

// TicketSelection é uma perna persistida do bilhete.
type TicketSelection struct {
	TicketID     string
	EventID      string
	SportKey     string
	League       string
	HomeTeam     string
	AwayTeam     string
	Market       string
	Outcome      string
	Odds         float64
	Point        *float64
	CommenceTime string
}
