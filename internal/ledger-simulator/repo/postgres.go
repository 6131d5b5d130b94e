package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Postgres implementa o contrato de liquidação: verificação de saldo,
// débito e persistência do bilhete numa transação só.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
)

// PlaceBet debita o stake e persiste o bilhete atomicamente.
// Idempotente por (user_id, external_ref): repetição devolve o bilhete já criado.
func (p *Postgres) PlaceBet(ctx context.Context, userID string, stakeCents int64, currency, externalRef string, selections []TicketSelection) (string, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	// Idempotência: requisição repetida não debita duas vezes
	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM tickets WHERE user_id=$1 AND external_ref=$2`,
		userID, externalRef).Scan(&existing)
	if err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return "", err
	}

	// Lock pessimista na carteira antes de checar saldo
	var walletID string
	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`,
		userID).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return "", ErrWalletNotFound
	} else if err != nil {
		return "", err
	}

	if balance < stakeCents {
		return "", ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`,
		stakeCents, walletID); err != nil {
		return "", err
	}

	ticketID := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO tickets (id, user_id, stake_cents, currency, external_ref, status)
		VALUES ($1,$2,$3,$4,$5,'PLACED')`,
		ticketID, userID, stakeCents, currency, externalRef); err != nil {
		return "", err
	}

	for _, sel := range selections {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO ticket_selections
				(ticket_id, event_id, sport_key, league, home_team, away_team, market, outcome, odds, point, commence_time)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			ticketID, sel.EventID, sel.SportKey, sel.League, sel.HomeTeam, sel.AwayTeam,
			sel.Market, sel.Outcome, sel.Odds, sel.Point, nullIfEmpty(sel.CommenceTime)); err != nil {
			return "", err
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description)
		VALUES ($1,'DEBIT',$2,$3)`,
		walletID, stakeCents, "ticket:"+ticketID); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return ticketID, nil
}

// Deposit credita saldo pra seed de desenvolvimento, criando a carteira se preciso.
func (p *Postgres) Deposit(ctx context.Context, userID string, amountCents int64) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var walletID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID)
	if err == sql.ErrNoRows {
		walletID = uuid.NewString()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
			walletID, userID); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
		amountCents, walletID); err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description)
		VALUES ($1,'CREDIT',$2,'dev deposit')`,
		walletID, amountCents); err != nil {
		return 0, err
	}

	var balance int64
	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, walletID).Scan(&balance); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// Balance devolve o saldo atual da carteira do usuário.
func (p *Postgres) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrWalletNotFound
	}
	return balance, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
