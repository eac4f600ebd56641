// Command healthcheck runs read-only diagnostics against the platform
// database and prints a pass/fail report. It makes no writes and is
// safe to run against production.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/arenahq/arena/config"
	"github.com/arenahq/arena/db"
	"github.com/arenahq/arena/repositories"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

type probeResult struct {
	name   string
	detail string
	err    error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL config: %v\n", err)
		os.Exit(1)
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL database connect: %v\n", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		mu      sync.Mutex
		results []probeResult
	)
	record := func(name, detail string, err error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, probeResult{name: name, detail: detail, err: err})
	}

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := dbConn.PingContext(gctx)
		record("database ping", "", err)
		return nil
	})

	for _, table := range []string{"users", "tournaments", "participants", "transactions"} {
		table := table
		g.Go(func() error {
			n, err := countRows(gctx, dbConn, table)
			record(table+" count", fmt.Sprintf("%d rows", n), err)
			return nil
		})
	}

	g.Go(func() error {
		drifts, err := tournamentRepo.ListCountDrift(gctx)
		detail := "no drift"
		if err == nil && len(drifts) > 0 {
			detail = fmt.Sprintf("%d tournaments with player count drift", len(drifts))
		}
		record("player count drift", detail, err)
		return nil
	})

	g.Wait()

	failed := false
	for _, r := range results {
		if r.err != nil {
			failed = true
			fmt.Printf("FAIL %-24s %v\n", r.name, r.err)
			continue
		}
		if r.detail != "" {
			fmt.Printf("PASS %-24s %s\n", r.name, r.detail)
		} else {
			fmt.Printf("PASS %s\n", r.name)
		}
	}

	if failed {
		os.Exit(1)
	}
}

func countRows(ctx context.Context, dbConn *sql.DB, table string) (int, error) {
	var n int
	err := dbConn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}
