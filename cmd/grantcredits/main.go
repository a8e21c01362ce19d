package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tourgen/internal/adapter/repo"
	"tourgen/internal/infra"
)

// Operator tool: top up a user's credit balance. Submission debits and
// watchdog refunds never go through this path.
func main() {
	var (
		userFlag   string
		amountFlag int
	)

	flag.StringVar(&userFlag, "user", "", "user ID to credit (UUID)")
	flag.IntVar(&amountFlag, "amount", 0, "credits to add (must be positive)")
	flag.Parse()

	userID := strings.TrimSpace(userFlag)
	if userID == "" {
		exitWithError(errors.New("-user is required"))
	}
	if amountFlag <= 0 {
		exitWithError(errors.New("-amount must be positive"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "grantcredits").Logger()
	ledger := repo.NewCreditLedger(infra.NewSQLRunner(pool, logger))

	balance, err := ledger.Grant(ctx, userID, amountFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to grant credits: %w", err))
	}

	fmt.Printf("granted %d credits to %s, balance is now %d\n", amountFlag, userID, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
