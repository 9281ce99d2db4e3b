package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/footy-auction/go/internal/dbconfig"
	"github.com/mcdev12/footy-auction/go/internal/teams"
)

// Usage: seed_teams [teams.json]
// Without a file the built-in sample teams are inserted.
func main() {
	// 1) Load the team list
	requests := teams.SampleTeams()
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &requests); err != nil {
			fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
			os.Exit(1)
		}
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert and count
	var (
		total    = len(requests)
		inserted int
		skipped  int
		errs     int
	)

	for _, t := range requests {
		members := t.NumberOfMembers
		if members == 0 {
			members = 12
		}
		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO teams (
              id, name, owner, coowner_name, batch, price,
              number_of_members, logo_filename, created_at
            ) VALUES (
              $1,$2,$3,$4,$5,$6,$7,$8,$9
            )
            ON CONFLICT (name) DO NOTHING
        `,
			uuid.New(), t.Name, t.Owner, t.CoOwnerName, t.Batch, t.Price,
			members, t.LogoFilename, time.Now().UTC(),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting team %s: %v\n", t.Name, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Teams seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
