package model

import "fmt"

// Códigos fechados de falha de colocação, expostos no corpo de erro da API.
const (
	CodeEventNotFound       = "event_not_found"
	CodeEventStarted        = "event_started"
	CodeLiveNotSupported    = "live_not_supported"
	CodeCutoff              = "cutoff"
	CodePriceChanged        = "price_changed"
	CodeMarketNotSupported  = "market_not_supported"
	CodeMarketsNotSupported = "markets_not_supported"
	CodeOutcomeNotFound     = "outcome_not_found"
	CodeInvalidStake        = "invalid_stake"
	CodeNoSelections        = "no_selections"
	CodeDuplicateSelection  = "duplicate_selection"
	CodeInvalidOdds         = "invalid_odds"
	CodeProviderError       = "provider_error"
)

// PlacementError é a variante etiquetada de falha: um código do conjunto
// fechado acima mais contexto suficiente pro chamador decidir entre
// re-tentar com odds frescas ou desistir.
type PlacementError struct {
	Code          string
	Message       string
	EventID       string
	Market        string
	SportKey      string
	RequestedOdds float64
	CurrentOdds   float64
}

func (e *PlacementError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.EventID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
