package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
)

// ErrInsufficientFunds é o erro de domínio propagado do gateway sem compensação
// local: nenhum dinheiro se moveu até o gateway ter sucesso.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Client fala com o gateway de liquidação externo. A chamada é única e
// opaca: verificação de saldo, débito e persistência do bilhete acontecem
// lá dentro, atomicamente. Sem retries próprios.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

type placeBetRequest struct {
	UserID      string              `json:"userId"`
	StakeCents  int64               `json:"stake_cents"`
	Currency    string              `json:"currency"`
	ExternalRef string              `json:"external_ref"`
	Selections  []placeBetSelection `json:"selections"`
}

// placeBetSelection é o shape wire da perna re-resolvida. CommenceTime vira
// string RFC3339 pra que kickoff desconhecido seja omitido de fato — o zero
// de time.Time serializado viraria uma data literal do ano 1.
type placeBetSelection struct {
	EventID      string   `json:"eventId"`
	SportKey     string   `json:"sportKey"`
	League       string   `json:"league,omitempty"`
	HomeTeam     string   `json:"homeTeam,omitempty"`
	AwayTeam     string   `json:"awayTeam,omitempty"`
	Market       string   `json:"market"`
	Outcome      string   `json:"outcome"`
	Odds         float64  `json:"odds"`
	Point        *float64 `json:"point,omitempty"`
	CommenceTime string   `json:"commenceTime,omitempty"`
}

func toWireSelections(selections []model.ResolvedSelection) []placeBetSelection {
	out := make([]placeBetSelection, 0, len(selections))
	for _, sel := range selections {
		ws := placeBetSelection{
			EventID:  sel.EventID,
			SportKey: sel.SportKey,
			League:   sel.League,
			HomeTeam: sel.HomeTeam,
			AwayTeam: sel.AwayTeam,
			Market:   sel.Market,
			Outcome:  sel.Outcome,
			Odds:     sel.Odds,
			Point:    sel.Point,
		}
		if !sel.CommenceTime.IsZero() {
			ws.CommenceTime = sel.CommenceTime.UTC().Format(time.RFC3339)
		}
		out = append(out, ws)
	}
	return out
}

type placeBetResponse struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// PlaceBet executa a operação idempotente de débito + persistência e devolve
// o id do bilhete. external_ref é a chave de idempotência do lado do gateway.
func (c *Client) PlaceBet(ctx context.Context, userID string, stakeCents int64, currency, externalRef string, selections []model.ResolvedSelection) (string, error) {
	body, _ := json.Marshal(placeBetRequest{
		UserID:      userID,
		StakeCents:  stakeCents,
		Currency:    currency,
		ExternalRef: externalRef,
		Selections:  toWireSelections(selections),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/ledger/place-bet", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var out placeBetResponse
	if res.StatusCode >= 300 {
		_ = json.NewDecoder(res.Body).Decode(&out)
		if res.StatusCode == http.StatusConflict || out.Error == "insufficient_funds" {
			return "", ErrInsufficientFunds
		}
		if out.Error != "" {
			return "", fmt.Errorf("ledger: %s", out.Error)
		}
		return "", fmt.Errorf("ledger http %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.TicketID, nil
}
