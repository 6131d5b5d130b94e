package dto

import "github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"

// PlaceTicketRequest é o corpo de POST /v1/tickets. Os campos de política
// são opcionais; ausentes, valem os defaults do serviço.
type PlaceTicketRequest struct {
	UserID         string            `json:"userId"`
	Stake          float64           `json:"stake"`
	Currency       string            `json:"currency"`
	Selections     []model.Selection `json:"selections"`
	AllowLive      *bool             `json:"allowLive,omitempty"`
	CutoffMinutes  *int              `json:"cutoffMinutes,omitempty"`
	PriceTolerance *float64          `json:"priceTolerance,omitempty"`
}
