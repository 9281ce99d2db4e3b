package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/footy-auction/go/internal/db/migrations"
	"github.com/mcdev12/footy-auction/go/internal/dbconfig"
)

func setupDatabase(ctx context.Context) (*sql.DB, error) {
	database, err := dbconfig.Open(dbconfig.NewConfigFromEnv())
	if err != nil {
		return nil, err
	}

	if err := migrations.Apply(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return database, nil
}
