package topics

const (
	// Tickets
	TicketPlaced    = "ticket_placed"
	TicketPlacedDLQ = "ticket_placed_dlq"
)
