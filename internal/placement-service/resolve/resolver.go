package resolve

import (
	"strings"
	"time"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
)

// Janela tolerada entre o kickoff lembrado pela seleção e o do snapshot
// quando o evento é casado por nome de time (fallback heurístico).
const fallbackWindow = 2 * time.Hour

func normalize(v string) string { return strings.ToLower(strings.TrimSpace(v)) }

// Resolve reconcilia uma seleção stale contra o snapshot fresco do seu
// esporte: localiza evento, mercado e outcome vivos. É reconciliação de
// rótulos, não igualdade crua de strings — o rótulo cacheado do cliente e o
// nome recém-buscado vêm de sistemas que evoluem separados.
func Resolve(sel model.Selection, snaps []model.MarketSnapshot) (*model.MarketSnapshot, *model.Outcome, *model.PlacementError) {
	ev := FindEvent(sel, snaps)
	if ev == nil {
		return nil, nil, &model.PlacementError{
			Code:    model.CodeEventNotFound,
			Message: "event not found",
			EventID: sel.EventID,
		}
	}

	mk := FindMarket(sel, ev)
	if mk == nil {
		return nil, nil, &model.PlacementError{
			Code:    model.CodeMarketNotSupported,
			Message: "market not available",
			EventID: sel.EventID,
			Market:  sel.Market,
		}
	}

	out := FindOutcome(sel, ev, mk)
	if out == nil {
		return nil, nil, &model.PlacementError{
			Code:    model.CodeOutcomeNotFound,
			Message: "outcome not available",
			EventID: sel.EventID,
			Market:  sel.Market,
		}
	}

	return ev, out, nil
}

// FindEvent localiza o evento da seleção: id exato primeiro; na ausência,
// cai pra heurística por substring dos nomes dos times mais a janela de
// ±2h sobre o kickoff, quando ambos os horários são conhecidos.
func FindEvent(sel model.Selection, snaps []model.MarketSnapshot) *model.MarketSnapshot {
	if sel.EventID != "" {
		for i := range snaps {
			if snaps[i].EventID == sel.EventID {
				return &snaps[i]
			}
		}
	}

	home, away := sel.HomeTeam, sel.AwayTeam
	if home == "" || away == "" {
		if h, a, ok := parseMatchTeams(sel.Match); ok {
			if home == "" {
				home = h
			}
			if away == "" {
				away = a
			}
		}
	}
	if home == "" || away == "" {
		return nil
	}

	for i := range snaps {
		ev := &snaps[i]
		if !teamMatches(ev.HomeTeam, home) || !teamMatches(ev.AwayTeam, away) {
			continue
		}
		if sel.CommenceTime.IsZero() || ev.CommenceTime.IsZero() {
			return ev
		}
		diff := ev.CommenceTime.Sub(sel.CommenceTime)
		if diff < 0 {
			diff = -diff
		}
		if diff <= fallbackWindow {
			return ev
		}
	}
	return nil
}

// parseMatchTeams quebra o rótulo "Home vs Away" carregado pelo cliente.
func parseMatchTeams(match string) (home, away string, ok bool) {
	parts := strings.Split(match, " vs ")
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// teamMatches tolera diferenças de grafia entre o rótulo cacheado e o nome
// fresco: igualdade ou contenção mútua, sempre case-insensitive.
func teamMatches(a, b string) bool {
	left, right := normalize(a), normalize(b)
	if left == "" || right == "" {
		return false
	}
	if left == right {
		return true
	}
	return strings.Contains(left, right) || strings.Contains(right, left)
}

// FindMarket casa a chave exata; seleção de alternate_totals cai pro
// mercado totals simples quando o alternativo não veio no snapshot.
func FindMarket(sel model.Selection, ev *model.MarketSnapshot) *model.Market {
	for i := range ev.Markets {
		if ev.Markets[i].Key == sel.Market {
			return &ev.Markets[i]
		}
	}
	if sel.Market == "alternate_totals" {
		for i := range ev.Markets {
			if ev.Markets[i].Key == "totals" {
				return &ev.Markets[i]
			}
		}
	}
	return nil
}

// mapOutcomeName traduz os rótulos genéricos do cliente (home/away/draw,
// 1/X/2) pros nomes canônicos do evento; nome direto de time passa intacto.
func mapOutcomeName(sel model.Selection, ev *model.MarketSnapshot) string {
	outcome := normalize(sel.Outcome)
	switch sel.Market {
	case "h2h_3_way":
		switch outcome {
		case "1":
			return normalize(ev.HomeTeam)
		case "2":
			return normalize(ev.AwayTeam)
		case "x", "draw":
			return "draw"
		}
	case "draw_no_bet", "spreads":
		switch outcome {
		case "home":
			return normalize(ev.HomeTeam)
		case "away":
			return normalize(ev.AwayTeam)
		}
	case "h2h":
		switch outcome {
		case "home":
			return normalize(ev.HomeTeam)
		case "away":
			return normalize(ev.AwayTeam)
		case "draw", "x":
			return "draw"
		}
	}
	return outcome
}

// FindOutcome aplica o matching específico de cada mercado.
func FindOutcome(sel model.Selection, ev *model.MarketSnapshot, mk *model.Market) *model.Outcome {
	name := mapOutcomeName(sel, ev)

	switch mk.Key {
	case "totals", "alternate_totals":
		// prefixo over/under + igualdade exata do ponto; sem ponto não resolve
		if sel.Point == nil {
			return nil
		}
		word := strings.SplitN(name, " ", 2)[0]
		for i := range mk.Outcomes {
			o := &mk.Outcomes[i]
			if o.Point == nil || *o.Point != *sel.Point {
				continue
			}
			if strings.HasPrefix(normalize(o.Name), word) {
				return o
			}
		}
		return nil

	case "spreads":
		// nome mapeado do time; ponto só descarta quando ambos existem e divergem
		for i := range mk.Outcomes {
			o := &mk.Outcomes[i]
			if sel.Point != nil && o.Point != nil && *o.Point != *sel.Point {
				continue
			}
			if normalize(o.Name) == name {
				return o
			}
		}
		return nil
	}

	for i := range mk.Outcomes {
		if normalize(mk.Outcomes[i].Name) == name {
			return &mk.Outcomes[i]
		}
	}
	return nil
}
