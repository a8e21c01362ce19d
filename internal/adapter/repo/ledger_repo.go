package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tourgen/internal/domain"
	"tourgen/internal/infra"
	"tourgen/internal/sqlinline"
)

// CreditLedgerPG implements domain.CreditLedger on PostgreSQL. Debit
// and Credit each run as one CTE statement, so affordability checks and
// refund idempotence hold under concurrent callers without read-then-
// write sequences in application code.
type CreditLedgerPG struct {
	sql infra.SQLExecutor
}

func NewCreditLedger(sql infra.SQLExecutor) *CreditLedgerPG {
	return &CreditLedgerPG{sql: sql}
}

func (r *CreditLedgerPG) Debit(ctx context.Context, userID string, amount int, reason, jobID string) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("ledger: negative debit amount %d: %w", amount, domain.ErrInvalidRequest)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QDebitCredits, userID, amount, jobID, reason, uuid.NewString())
	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientFunds
		}
		return 0, fmt.Errorf("ledger: debit: %w", err)
	}
	return balance, nil
}

func (r *CreditLedgerPG) Credit(ctx context.Context, userID string, amount int, reason, jobID string) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("ledger: negative credit amount %d: %w", amount, domain.ErrInvalidRequest)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QCreditCredits, userID, amount, jobID, reason, uuid.NewString())
	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A credit entry already exists for this job: the refund was
			// issued before and the balance is untouched.
			return 0, domain.ErrAlreadyRefunded
		}
		return 0, fmt.Errorf("ledger: credit: %w", err)
	}
	return balance, nil
}

func (r *CreditLedgerPG) Balance(ctx context.Context, userID string) (int, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectBalance, userID)
	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Grant tops up (or creates) a user's balance. Used by the operator CLI
// and by account provisioning, not by the job lifecycle.
func (r *CreditLedgerPG) Grant(ctx context.Context, userID string, amount int) (int, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QGrantCredits, userID, amount)
	var balance int
	if err := row.Scan(&balance); err != nil {
		return 0, fmt.Errorf("ledger: grant: %w", err)
	}
	return balance, nil
}

var _ domain.CreditLedger = (*CreditLedgerPG)(nil)
