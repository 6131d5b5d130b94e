package oddsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
)

// Mercados pedidos quando a requisição não restringe nada (mesma lista do app).
var DefaultMarkets = []string{"h2h", "totals", "alternate_totals", "spreads", "btts", "draw_no_bet", "h2h_3_way"}

// Mercados usados no enriquecimento por evento.
var EventMarkets = []string{"h2h", "totals", "spreads", "btts", "draw_no_bet", "h2h_3_way"}

// Client consome o provedor de odds (formato the-odds-api v4) e normaliza
// a resposta pro shape canônico. Snapshots são sempre buscados frescos;
// nenhum resultado é cacheado aqui.
type Client struct {
	BaseURL string
	APIKey  string
	Regions string
	HTTP    *http.Client
	Log     *zap.Logger
}

func NewClient(base, apiKey, regions string, log *zap.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(base, "/"),
		APIKey:  apiKey,
		Regions: regions,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		Log:     log,
	}
}

// ProviderError preserva status e mensagem do provedor; a mensagem é de onde
// sai a lista de mercados não suportados.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("odds provider http %d: %s", e.Status, e.Message)
}

// shape do payload upstream (snake_case; o primeiro bookmaker vale)
type apiOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []apiMarket `json:"markets"`
}

type apiEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers,omitempty"`
}

func (c *Client) get(ctx context.Context, path string, markets []string) ([]apiEvent, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("provider url: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", c.APIKey)
	q.Set("regions", c.Regions)
	q.Set("markets", strings.Join(markets, ","))
	q.Set("oddsFormat", "decimal")
	q.Set("dateFormat", "iso")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		var pe struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &pe) != nil || pe.Message == "" {
			pe.Message = strings.TrimSpace(string(body))
		}
		return nil, &ProviderError{Status: res.StatusCode, Message: pe.Message}
	}

	var events []apiEvent
	if err := json.NewDecoder(res.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	return events, nil
}

// FetchSportOdds busca todos os eventos de um esporte com os mercados
// pedidos, normalizados pra []MarketSnapshot.
func (c *Client) FetchSportOdds(ctx context.Context, sportKey string, markets []string) ([]model.MarketSnapshot, error) {
	events, err := c.get(ctx, "/sports/"+sportKey+"/odds", markets)
	if err != nil {
		return nil, err
	}
	out := make([]model.MarketSnapshot, 0, len(events))
	for _, e := range events {
		out = append(out, toSnapshot(e))
	}
	return out, nil
}

// FetchEventMarkets busca os mercados adicionais de um evento só.
// Devolve nil sem erro quando o provedor não conhece o evento.
func (c *Client) FetchEventMarkets(ctx context.Context, sportKey, eventID string, markets []string) (*model.MarketSnapshot, error) {
	events, err := c.get(ctx, "/sports/"+sportKey+"/events/"+eventID+"/odds", markets)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	snap := toSnapshot(events[0])
	return &snap, nil
}

// toSnapshot achata o payload upstream pro shape canônico: só o primeiro
// bookmaker entra, igual ao app.
func toSnapshot(e apiEvent) model.MarketSnapshot {
	snap := model.MarketSnapshot{
		EventID:      e.ID,
		SportKey:     e.SportKey,
		SportTitle:   e.SportTitle,
		CommenceTime: e.CommenceTime,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
	}
	if len(e.Bookmakers) == 0 {
		return snap
	}
	for _, m := range e.Bookmakers[0].Markets {
		mk := model.Market{Key: m.Key, Outcomes: make([]model.Outcome, 0, len(m.Outcomes))}
		for _, o := range m.Outcomes {
			mk.Outcomes = append(mk.Outcomes, model.Outcome{Name: o.Name, Price: o.Price, Point: o.Point})
		}
		snap.Markets = append(snap.Markets, mk)
	}
	return snap
}

// ParseUnsupportedMarkets extrai da mensagem do provedor a lista de chaves
// de mercado rejeitadas pelo endpoint. Lista vazia = mensagem de outro tipo.
func ParseUnsupportedMarkets(message string) []string {
	const marker = "Markets not supported by this endpoint:"
	idx := strings.Index(message, marker)
	if idx < 0 {
		return nil
	}
	var out []string
	for _, item := range strings.Split(message[idx+len(marker):], ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
