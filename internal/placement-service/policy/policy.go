package policy

import (
	"time"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
)

// Engine aplica as regras de timing e deriva de preço sobre seleções já
// resolvidas. Now é injetável pra teste.
type Engine struct {
	Now func() time.Time
}

func NewEngine() *Engine { return &Engine{Now: time.Now} }

// CheckLive é a pré-checagem feita antes da resolução, com o kickoff que a
// própria seleção carrega: política sem live rejeita evento já em andamento.
func (e *Engine) CheckLive(sel model.Selection, p model.PlacementPolicy) *model.PlacementError {
	if p.AllowLive || sel.CommenceTime.IsZero() {
		return nil
	}
	if !e.Now().Before(sel.CommenceTime) {
		return &model.PlacementError{
			Code:    model.CodeLiveNotSupported,
			Message: "live betting is not available",
			EventID: sel.EventID,
		}
	}
	return nil
}

// CheckTiming reavalia contra o kickoff do snapshot fresco: evento já
// começado e janela de cutoff antes do início.
func (e *Engine) CheckTiming(sel model.Selection, kickoff time.Time, p model.PlacementPolicy) *model.PlacementError {
	if p.AllowLive || kickoff.IsZero() {
		return nil
	}
	now := e.Now()
	if !now.Before(kickoff) {
		return &model.PlacementError{
			Code:    model.CodeEventStarted,
			Message: "event already started",
			EventID: sel.EventID,
		}
	}
	cutoff := time.Duration(p.CutoffMinutes) * time.Minute
	if !now.Before(kickoff.Add(-cutoff)) {
		return &model.PlacementError{
			Code:    model.CodeCutoff,
			Message: "event too close to start",
			EventID: sel.EventID,
		}
	}
	return nil
}

// CheckPrice aplica a deriva assimétrica: rejeita só quando o preço vivo é
// pior que o submetido além de requested*tolerance. Preço vivo igual ou
// maior passa sempre — melhora de preço nunca bloqueia o apostador.
func (e *Engine) CheckPrice(sel model.Selection, current float64, p model.PlacementPolicy) *model.PlacementError {
	requested := sel.Odds
	if current <= 0 || requested <= 0 {
		return &model.PlacementError{
			Code:    model.CodeInvalidOdds,
			Message: "invalid odds",
			EventID: sel.EventID,
		}
	}
	if current >= requested {
		return nil
	}
	if requested-current > requested*p.PriceTolerance {
		return &model.PlacementError{
			Code:          model.CodePriceChanged,
			Message:       "price changed",
			EventID:       sel.EventID,
			RequestedOdds: requested,
			CurrentOdds:   current,
		}
	}
	return nil
}
