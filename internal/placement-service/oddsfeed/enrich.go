package oddsfeed

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
)

// limite do fan-out de enriquecimento por evento
const enrichLimit = 4

// EnrichEvents dispara em paralelo (fan-out limitado) a busca de mercados
// adicionais pros eventos listados e mescla o resultado no snapshot primário.
// Falha de um enriquecimento é isolada: aquele evento degrada pros mercados
// primários e os irmãos seguem.
func (c *Client) EnrichEvents(ctx context.Context, snaps []model.MarketSnapshot, eventIDs []string, markets []string) []model.MarketSnapshot {
	want := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}

	extra := make([]*model.MarketSnapshot, len(snaps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichLimit)
	for i := range snaps {
		if !want[snaps[i].EventID] {
			continue
		}
		i := i
		g.Go(func() error {
			enriched, err := c.FetchEventMarkets(gctx, snaps[i].SportKey, snaps[i].EventID, markets)
			if err != nil {
				c.Log.Warn("event enrichment failed",
					zap.String("eventId", snaps[i].EventID),
					zap.Error(err),
				)
				return nil // nunca derruba o lote
			}
			extra[i] = enriched
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.MarketSnapshot, len(snaps))
	for i := range snaps {
		out[i] = MergeMarkets(snaps[i], extra[i])
	}
	return out
}

// MergeMarkets aplica a precedência primário-vence: o enriquecimento só
// preenche mercados ausentes, nunca sobrescreve os já presentes.
func MergeMarkets(primary model.MarketSnapshot, enriched *model.MarketSnapshot) model.MarketSnapshot {
	if enriched == nil {
		return primary
	}
	have := make(map[string]bool, len(primary.Markets))
	for _, m := range primary.Markets {
		have[m.Key] = true
	}
	merged := make([]model.Market, 0, len(primary.Markets)+len(enriched.Markets))
	merged = append(merged, primary.Markets...)
	for _, m := range enriched.Markets {
		if !have[m.Key] {
			merged = append(merged, m)
		}
	}
	primary.Markets = merged
	return primary
}
