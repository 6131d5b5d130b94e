package validate

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/oddsfeed"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/policy"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/resolve"
)

// Validator executa o pipeline de revalidação do bilhete: re-busca odds
// vivas por esporte, resolve cada seleção stale e aplica a política, nessa
// ordem. Toda seleção é validada antes de aprovar qualquer uma; uma única
// falha aborta o bilhete inteiro — não existe colocação parcial.
type Validator struct {
	Feed   *oddsfeed.Client
	Policy *policy.Engine
	Log    *zap.Logger
}

func New(feed *oddsfeed.Client, pol *policy.Engine, log *zap.Logger) *Validator {
	return &Validator{Feed: feed, Policy: pol, Log: log}
}

// Validate devolve as ResolvedSelections prontas pro gateway de liquidação,
// ou o primeiro PlacementError encontrado.
func (v *Validator) Validate(ctx context.Context, selections []model.Selection, pol model.PlacementPolicy) ([]model.ResolvedSelection, *model.PlacementError) {
	if len(selections) == 0 {
		return nil, &model.PlacementError{Code: model.CodeNoSelections, Message: "no selections"}
	}

	// a identidade (eventId, market, outcome) é única por bilhete
	for i := range selections {
		for j := i + 1; j < len(selections); j++ {
			if selections[i].SameBet(selections[j]) {
				return nil, &model.PlacementError{
					Code:    model.CodeDuplicateSelection,
					Message: "duplicate selection",
					EventID: selections[i].EventID,
					Market:  selections[i].Market,
				}
			}
		}
	}

	// snapshot fresco por esporte a cada requisição — nada vem de cache,
	// pra fechar a porta de exploração de preço stale
	bySport := make(map[string][]model.MarketSnapshot)
	for _, sportKey := range distinctSports(selections) {
		subset := selectionsOfSport(selections, sportKey)
		markets := requestedMarkets(subset)
		if len(markets) == 0 {
			markets = oddsfeed.DefaultMarkets
		}

		snaps, perr := v.fetchSport(ctx, sportKey, markets)
		if perr != nil {
			return nil, perr
		}

		// fan-out limitado de enriquecimento só pros eventos do bilhete
		snaps = v.Feed.EnrichEvents(ctx, snaps, distinctEvents(subset), oddsfeed.EventMarkets)
		bySport[sportKey] = snaps
	}

	resolved := make([]model.ResolvedSelection, 0, len(selections))
	for _, sel := range selections {
		if perr := v.Policy.CheckLive(sel, pol); perr != nil {
			return nil, perr
		}

		ev, outcome, perr := resolve.Resolve(sel, bySport[sel.SportKey])
		if perr != nil {
			return nil, perr
		}

		kickoff := ev.CommenceTime
		if kickoff.IsZero() {
			kickoff = sel.CommenceTime
		}
		if perr := v.Policy.CheckTiming(sel, kickoff, pol); perr != nil {
			return nil, perr
		}
		if perr := v.Policy.CheckPrice(sel, outcome.Price, pol); perr != nil {
			return nil, perr
		}

		// enriquece a seleção com o estado vivo: preço, ponto e nomes canônicos
		live := sel
		live.Odds = outcome.Price
		if outcome.Point != nil {
			live.Point = outcome.Point
		}
		live.HomeTeam = ev.HomeTeam
		live.AwayTeam = ev.AwayTeam
		if ev.SportTitle != "" {
			live.League = ev.SportTitle
		}
		if !ev.CommenceTime.IsZero() {
			live.CommenceTime = ev.CommenceTime
		}
		resolved = append(resolved, model.ResolvedSelection(live))
	}

	return resolved, nil
}

// fetchSport busca o snapshot do esporte, com retry único quando o provedor
// rejeita parte dos mercados pedidos: re-tenta só com o subconjunto aceito.
func (v *Validator) fetchSport(ctx context.Context, sportKey string, markets []string) ([]model.MarketSnapshot, *model.PlacementError) {
	snaps, err := v.Feed.FetchSportOdds(ctx, sportKey, markets)
	if err == nil {
		return snaps, nil
	}

	var perr *oddsfeed.ProviderError
	if errors.As(err, &perr) {
		if unsupported := oddsfeed.ParseUnsupportedMarkets(perr.Message); len(unsupported) > 0 {
			bad := make(map[string]bool, len(unsupported))
			for _, m := range unsupported {
				bad[m] = true
			}
			var allowed []string
			for _, m := range markets {
				if !bad[m] {
					allowed = append(allowed, m)
				}
			}
			if len(allowed) == 0 {
				return nil, &model.PlacementError{
					Code:     model.CodeMarketsNotSupported,
					Message:  "markets not supported: " + strings.Join(unsupported, ", "),
					SportKey: sportKey,
				}
			}
			v.Log.Warn("retrying snapshot without unsupported markets",
				zap.String("sportKey", sportKey),
				zap.Strings("unsupported", unsupported),
			)
			if snaps, err = v.Feed.FetchSportOdds(ctx, sportKey, allowed); err == nil {
				return snaps, nil
			}
		}
	}

	// upstream indisponível ou quebrado: falha fechada, nunca segue com dado parcial
	return nil, &model.PlacementError{
		Code:     model.CodeProviderError,
		Message:  err.Error(),
		SportKey: sportKey,
	}
}

// requestedMarkets deduz o conjunto de mercados a pedir; alternate_totals
// vira totals na requisição (o endpoint de esporte não o serve).
func requestedMarkets(selections []model.Selection) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sel := range selections {
		key := sel.Market
		if key == "" {
			continue
		}
		if key == "alternate_totals" {
			key = "totals"
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

func distinctSports(selections []model.Selection) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sel := range selections {
		if sel.SportKey != "" && !seen[sel.SportKey] {
			seen[sel.SportKey] = true
			out = append(out, sel.SportKey)
		}
	}
	return out
}

func distinctEvents(selections []model.Selection) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sel := range selections {
		if sel.EventID != "" && !seen[sel.EventID] {
			seen[sel.EventID] = true
			out = append(out, sel.EventID)
		}
	}
	return out
}

func selectionsOfSport(selections []model.Selection, sportKey string) []model.Selection {
	var out []model.Selection
	for _, sel := range selections {
		if sel.SportKey == sportKey {
			out = append(out, sel)
		}
	}
	return out
}
