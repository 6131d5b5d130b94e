package oddsfeed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/oddsfeed"
)

func pt(v float64) *float64 { return &v }

func marketKeys(snap model.MarketSnapshot) []string {
	keys := make([]string, 0, len(snap.Markets))
	for _, m := range snap.Markets {
		keys = append(keys, m.Key)
	}
	return keys
}

func TestMergeMarkets(t *testing.T) {
	primary := model.MarketSnapshot{
		EventID: "EPL_001",
		Markets: []model.Market{
			{Key: "h2h", Outcomes: []model.Outcome{{Name: "Arsenal", Price: 1.88}}},
			{Key: "totals", Outcomes: []model.Outcome{{Name: "Over 2.5", Price: 1.85, Point: pt(2.5)}}},
		},
	}
	enriched := &model.MarketSnapshot{
		EventID: "EPL_001",
		Markets: []model.Market{
			// mesmo mercado com preço divergente: o primário deve vencer
			{Key: "h2h", Outcomes: []model.Outcome{{Name: "Arsenal", Price: 9.99}}},
			{Key: "btts", Outcomes: []model.Outcome{{Name: "Yes", Price: 1.72}}},
		},
	}

	merged := oddsfeed.MergeMarkets(primary, enriched)

	keys := marketKeys(merged)
	if strings.Join(keys, ",") != "h2h,totals,btts" {
		t.Fatalf("merged keys = %v, want [h2h totals btts]", keys)
	}
	if merged.Markets[0].Outcomes[0].Price != 1.88 {
		t.Fatalf("h2h price = %v, want primary 1.88", merged.Markets[0].Outcomes[0].Price)
	}
}

func TestMergeMarketsNilEnrichment(t *testing.T) {
	primary := model.MarketSnapshot{
		EventID: "EPL_001",
		Markets: []model.Market{{Key: "h2h"}},
	}
	merged := oddsfeed.MergeMarkets(primary, nil)
	if len(merged.Markets) != 1 || merged.Markets[0].Key != "h2h" {
		t.Fatalf("merged = %+v, want primary untouched", merged)
	}
}

func TestEnrichEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/events/EPL_001/"):
			_, _ = w.Write([]byte(`[{
				"id": "EPL_001", "sport_key": "soccer_epl",
				"home_team": "Arsenal", "away_team": "Chelsea",
				"bookmakers": [{"key": "simbook", "title": "SimBook", "markets": [
					{"key": "btts", "outcomes": [{"name": "Yes", "price": 1.72}]}
				]}]
			}]`))
		case strings.Contains(r.URL.Path, "/events/EPL_002/"):
			// provedor falha pra esse evento; o lote não pode ser derrubado
			http.Error(w, `{"message":"upstream down"}`, http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := oddsfeed.NewClient(srv.URL, "test-key", "eu", zap.NewNop())
	snaps := []model.MarketSnapshot{
		{EventID: "EPL_001", SportKey: "soccer_epl", Markets: []model.Market{{Key: "h2h"}}},
		{EventID: "EPL_002", SportKey: "soccer_epl", Markets: []model.Market{{Key: "h2h"}}},
		{EventID: "EPL_003", SportKey: "soccer_epl", Markets: []model.Market{{Key: "h2h"}}},
	}

	out := c.EnrichEvents(context.Background(), snaps, []string{"EPL_001", "EPL_002"}, []string{"btts"})

	if len(out) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(out))
	}
	// EPL_001 ganhou o mercado extra
	if keys := marketKeys(out[0]); strings.Join(keys, ",") != "h2h,btts" {
		t.Errorf("EPL_001 markets = %v, want [h2h btts]", keys)
	}
	// EPL_002 degrada pros mercados primários
	if keys := marketKeys(out[1]); strings.Join(keys, ",") != "h2h" {
		t.Errorf("EPL_002 markets = %v, want [h2h]", keys)
	}
	// EPL_003 não estava na lista e fica intacto
	if keys := marketKeys(out[2]); strings.Join(keys, ",") != "h2h" {
		t.Errorf("EPL_003 markets = %v, want [h2h]", keys)
	}
}
