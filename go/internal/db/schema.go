// Package db holds the Postgres schema shared by the catalog packages.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var Schema string

// ApplySchema creates any missing catalog tables. Statements are idempotent.
func ApplySchema(ctx context.Context, database *sql.DB) error {
	if _, err := database.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
