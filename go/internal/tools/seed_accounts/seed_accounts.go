package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/footy-auction/go/internal/auth"
	"github.com/mcdev12/footy-auction/go/internal/dbconfig"
)

// account is one entry of the accounts file. Team accounts name their team;
// the subject id is resolved from the teams table.
type account struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	TeamName string `json:"team_name,omitempty"`
}

func main() {
	path := flag.String("file", "", "JSON file with accounts to create")
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: seed_accounts -file accounts.json [-cost 12]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var accounts []account
	if err := json.Unmarshal(data, &accounts); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbconfig.NewConfigFromEnv().DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var inserted, skipped, errs int
	for _, a := range accounts {
		ok, err := insertAccount(ctx, pool, a, *cost)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "error seeding %s: %v\n", a.Username, err)
			errs++
		case ok:
			inserted++
		default:
			skipped++
		}
	}

	fmt.Printf(
		"Accounts seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		len(accounts), inserted, skipped, errs,
	)
}

func insertAccount(ctx context.Context, pool *pgxpool.Pool, a account, cost int) (bool, error) {
	if a.Username == "" || a.Password == "" {
		return false, errors.New("username and password are required")
	}
	role, err := auth.ParseRole(a.Role)
	if err != nil {
		return false, err
	}

	subject := a.Username
	if role == auth.RoleTeam {
		err := pool.QueryRow(ctx, `SELECT id::text FROM teams WHERE name = $1`, a.TeamName).Scan(&subject)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("team %q not found", a.TeamName)
		}
		if err != nil {
			return false, err
		}
	}

	hash, err := auth.HashPassword(a.Password, cost)
	if err != nil {
		return false, err
	}

	tag, err := pool.Exec(ctx, `
        INSERT INTO credentials (username, password_hash, role, subject_id)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (username) DO NOTHING
    `, a.Username, hash, string(role), subject)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
