package oddsfeed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/oddsfeed"
)

const sportPayload = `[
	{
		"id": "EPL_001",
		"sport_key": "soccer_epl",
		"sport_title": "EPL",
		"commence_time": "2026-03-14T18:00:00Z",
		"home_team": "Arsenal",
		"away_team": "Chelsea",
		"bookmakers": [
			{
				"key": "simbook",
				"title": "SimBook",
				"markets": [
					{"key": "h2h", "outcomes": [
						{"name": "Arsenal", "price": 1.88},
						{"name": "Draw", "price": 3.50},
						{"name": "Chelsea", "price": 4.20}
					]},
					{"key": "totals", "outcomes": [
						{"name": "Over 2.5", "price": 1.85, "point": 2.5},
						{"name": "Under 2.5", "price": 1.95, "point": 2.5}
					]}
				]
			},
			{
				"key": "otherbook",
				"title": "OtherBook",
				"markets": [
					{"key": "h2h", "outcomes": [{"name": "Arsenal", "price": 9.99}]}
				]
			}
		]
	}
]`

func TestFetchSportOdds(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"apiKey":     r.URL.Query().Get("apiKey"),
			"regions":    r.URL.Query().Get("regions"),
			"markets":    r.URL.Query().Get("markets"),
			"oddsFormat": r.URL.Query().Get("oddsFormat"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sportPayload))
	}))
	defer srv.Close()

	c := oddsfeed.NewClient(srv.URL, "test-key", "eu", zap.NewNop())
	snaps, err := c.FetchSportOdds(context.Background(), "soccer_epl", []string{"h2h", "totals"})
	if err != nil {
		t.Fatalf("FetchSportOdds() error = %v", err)
	}

	if gotPath != "/sports/soccer_epl/odds" {
		t.Errorf("path = %s, want /sports/soccer_epl/odds", gotPath)
	}
	want := map[string]string{"apiKey": "test-key", "regions": "eu", "markets": "h2h,totals", "oddsFormat": "decimal"}
	if !reflect.DeepEqual(gotQuery, want) {
		t.Errorf("query = %v, want %v", gotQuery, want)
	}

	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	snap := snaps[0]
	if snap.EventID != "EPL_001" || snap.HomeTeam != "Arsenal" || snap.AwayTeam != "Chelsea" {
		t.Fatalf("snapshot header = %+v", snap)
	}
	if !snap.CommenceTime.Equal(time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("commence = %v", snap.CommenceTime)
	}

	// só o primeiro bookmaker entra
	if len(snap.Markets) != 2 {
		t.Fatalf("markets = %d, want 2", len(snap.Markets))
	}
	if snap.Markets[0].Outcomes[0].Price != 1.88 {
		t.Fatalf("h2h home price = %v, want 1.88 (first bookmaker only)", snap.Markets[0].Outcomes[0].Price)
	}
	over := snap.Markets[1].Outcomes[0]
	if over.Point == nil || *over.Point != 2.5 {
		t.Fatalf("totals point = %v, want 2.5", over.Point)
	}
}

func TestFetchSportOddsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "Markets not supported by this endpoint: btts, alternate_totals"}`))
	}))
	defer srv.Close()

	c := oddsfeed.NewClient(srv.URL, "test-key", "eu", zap.NewNop())
	_, err := c.FetchSportOdds(context.Background(), "soccer_epl", []string{"btts"})

	if err == nil {
		t.Fatal("FetchSportOdds() error = nil, want ProviderError")
	}
	perr, ok := err.(*oddsfeed.ProviderError)
	if !ok {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if perr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", perr.Status)
	}
	if got := oddsfeed.ParseUnsupportedMarkets(perr.Message); !reflect.DeepEqual(got, []string{"btts", "alternate_totals"}) {
		t.Errorf("ParseUnsupportedMarkets() = %v", got)
	}
}

func TestFetchEventMarketsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := oddsfeed.NewClient(srv.URL, "test-key", "eu", zap.NewNop())
	snap, err := c.FetchEventMarkets(context.Background(), "soccer_epl", "EPL_404", []string{"h2h"})
	if err != nil {
		t.Fatalf("FetchEventMarkets() error = %v", err)
	}
	if snap != nil {
		t.Fatalf("snapshot = %+v, want nil for unknown event", snap)
	}
}

func TestFetchEventMarketsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Event not found"}`))
	}))
	defer srv.Close()

	c := oddsfeed.NewClient(srv.URL, "test-key", "eu", zap.NewNop())
	snap, err := c.FetchEventMarkets(context.Background(), "soccer_epl", "EPL_404", []string{"h2h"})
	if err != nil {
		t.Fatalf("FetchEventMarkets() error = %v, 404 must be the unknown-event case", err)
	}
	if snap != nil {
		t.Fatalf("snapshot = %+v, want nil", snap)
	}
}

func TestParseUnsupportedMarkets(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			"single key",
			"Markets not supported by this endpoint: btts",
			[]string{"btts"},
		},
		{
			"multiple keys with spaces",
			"Markets not supported by this endpoint: btts, alternate_totals",
			[]string{"btts", "alternate_totals"},
		},
		{
			"marker mid message",
			"422 Unprocessable: Markets not supported by this endpoint: h2h_3_way",
			[]string{"h2h_3_way"},
		},
		{
			"unrelated message",
			"invalid api key",
			nil,
		},
		{
			"empty message",
			"",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := oddsfeed.ParseUnsupportedMarkets(tt.message); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseUnsupportedMarkets(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}
