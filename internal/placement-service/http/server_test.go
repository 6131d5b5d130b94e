package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/dto"
	httpapi "github.com/radieske/sports-bet-placement-poc/internal/placement-service/http"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/ledger"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/oddsfeed"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/policy"
	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/validate"
	"github.com/radieske/sports-bet-placement-poc/pkg/contracts/events"
)

const providerPayload = `[{
	"id": "EPL_001",
	"sport_key": "soccer_epl",
	"sport_title": "EPL",
	"commence_time": "2099-03-14T18:00:00Z",
	"home_team": "Arsenal",
	"away_team": "Chelsea",
	"bookmakers": [{"key": "simbook", "title": "SimBook", "markets": [
		{"key": "h2h", "outcomes": [
			{"name": "Arsenal", "price": 1.88},
			{"name": "Draw", "price": 3.50},
			{"name": "Chelsea", "price": 4.20}
		]}
	]}]
}]`

type capturePublisher struct {
	events []events.TicketPlaced
}

func (p *capturePublisher) PublishTicketPlaced(_ context.Context, ev events.TicketPlaced) error {
	p.events = append(p.events, ev)
	return nil
}

type ledgerBehavior struct {
	status int
	body   string
}

func newFixture(t *testing.T, lb ledgerBehavior) (http.Handler, *capturePublisher, func()) {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(providerPayload))
	}))

	ledgerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ledger/place-bet" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(lb.status)
		_, _ = w.Write([]byte(lb.body))
	}))

	feed := oddsfeed.NewClient(provider.URL, "test-key", "eu", zap.NewNop())
	validator := validate.New(feed, policy.NewEngine(), zap.NewNop())
	publ := &capturePublisher{}
	srv := httpapi.NewServer(zap.NewNop(), validator, ledger.New(ledgerSrv.URL), publ)

	cleanup := func() {
		provider.Close()
		ledgerSrv.Close()
	}
	return srv.Router(), publ, cleanup
}

func placeRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPlaceTicketHappyPath(t *testing.T) {
	router, publ, cleanup := newFixture(t, ledgerBehavior{
		status: http.StatusOK,
		body:   `{"ticket_id": "tkt-123", "status": "PLACED"}`,
	})
	defer cleanup()

	body := `{
		"userId": "u1",
		"stake": 1000,
		"selections": [{
			"id": "s1",
			"eventId": "EPL_001",
			"sportKey": "soccer_epl",
			"market": "h2h",
			"outcome": "home",
			"odds": 1.90
		}]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, placeRequest(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp dto.PlaceTicketResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BetID != "tkt-123" {
		t.Errorf("bet_id = %s, want tkt-123", resp.BetID)
	}
	// totais derivados do preço vivo 1.88, não do 1.90 enviado
	if resp.CombinedOdds != 1.88 {
		t.Errorf("combined_odds = %v, want 1.88", resp.CombinedOdds)
	}
	if resp.PotentialWin != 1880 {
		t.Errorf("potential_win = %v, want 1880", resp.PotentialWin)
	}
	if len(resp.Selections) != 1 || resp.Selections[0].Odds != 1.88 {
		t.Errorf("selections = %+v, want one leg at live 1.88", resp.Selections)
	}

	// evento ticket_placed publicado com os mesmos totais
	if len(publ.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(publ.events))
	}
	ev := publ.events[0]
	if ev.TicketID != "tkt-123" || ev.StakeCents != 100000 || ev.CombinedOdds != 1.88 {
		t.Errorf("event = %+v", ev)
	}
}

func TestPlaceTicketValidationFailures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			"bad json",
			`{`,
			http.StatusBadRequest, "",
		},
		{
			"missing user",
			`{"stake": 100, "selections": [{"id": "s1"}]}`,
			http.StatusBadRequest, "",
		},
		{
			"zero stake",
			`{"userId": "u1", "stake": 0, "selections": [{"id": "s1"}]}`,
			http.StatusBadRequest, "invalid_stake",
		},
		{
			"negative stake",
			`{"userId": "u1", "stake": -5, "selections": [{"id": "s1"}]}`,
			http.StatusBadRequest, "invalid_stake",
		},
		{
			"no selections",
			`{"userId": "u1", "stake": 100, "selections": []}`,
			http.StatusBadRequest, "no_selections",
		},
	}
	router, _, cleanup := newFixture(t, ledgerBehavior{status: http.StatusOK, body: `{"ticket_id": "x"}`})
	defer cleanup()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, placeRequest(tt.body))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode == "" {
				return
			}
			var resp dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestPlaceTicketPriceDrift(t *testing.T) {
	router, publ, cleanup := newFixture(t, ledgerBehavior{status: http.StatusOK, body: `{"ticket_id": "x"}`})
	defer cleanup()

	body := `{
		"userId": "u1",
		"stake": 1000,
		"selections": [{
			"id": "s1",
			"eventId": "EPL_001",
			"sportKey": "soccer_epl",
			"market": "h2h",
			"outcome": "home",
			"odds": 2.50
		}]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, placeRequest(body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "price_changed" || resp.RequestedOdds != 2.50 || resp.CurrentOdds != 1.88 {
		t.Errorf("error = %+v, want price_changed with both odds", resp)
	}
	if len(publ.events) != 0 {
		t.Error("rejected ticket must not publish events")
	}
}

func TestPlaceTicketDuplicateLeg(t *testing.T) {
	router, publ, cleanup := newFixture(t, ledgerBehavior{status: http.StatusOK, body: `{"ticket_id": "x"}`})
	defer cleanup()

	// a mesma perna duas vezes não pode liquidar, muito menos com totais zerados
	body := `{
		"userId": "u1",
		"stake": 1000,
		"selections": [
			{"id": "s1", "eventId": "EPL_001", "sportKey": "soccer_epl", "market": "h2h", "outcome": "home", "odds": 1.90},
			{"id": "s2", "eventId": "EPL_001", "sportKey": "soccer_epl", "market": "h2h", "outcome": "home", "odds": 1.88}
		]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, placeRequest(body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "duplicate_selection" {
		t.Errorf("code = %s, want duplicate_selection", resp.Code)
	}
	if len(publ.events) != 0 {
		t.Error("duplicate ticket must not publish events")
	}
}

func TestPlaceTicketInsufficientFunds(t *testing.T) {
	router, publ, cleanup := newFixture(t, ledgerBehavior{
		status: http.StatusConflict,
		body:   `{"error": "insufficient_funds"}`,
	})
	defer cleanup()

	body := `{
		"userId": "u1",
		"stake": 1000,
		"selections": [{
			"id": "s1",
			"eventId": "EPL_001",
			"sportKey": "soccer_epl",
			"market": "h2h",
			"outcome": "home",
			"odds": 1.88
		}]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, placeRequest(body))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "insufficient_funds") {
		t.Errorf("body = %s, want insufficient_funds code", rec.Body.String())
	}
	if len(publ.events) != 0 {
		t.Error("failed debit must not publish events")
	}
}

func TestPlaceTicketProviderDown(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"upstream down"}`, http.StatusBadGateway)
	}))
	defer provider.Close()

	feed := oddsfeed.NewClient(provider.URL, "test-key", "eu", zap.NewNop())
	validator := validate.New(feed, policy.NewEngine(), zap.NewNop())
	srv := httpapi.NewServer(zap.NewNop(), validator, ledger.New("http://localhost:1"), &capturePublisher{})

	body := `{
		"userId": "u1",
		"stake": 1000,
		"selections": [{
			"id": "s1",
			"eventId": "EPL_001",
			"sportKey": "soccer_epl",
			"market": "h2h",
			"outcome": "home",
			"odds": 1.88
		}]
	}`
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, placeRequest(body))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 (body %s)", rec.Code, rec.Body.String())
	}
}
