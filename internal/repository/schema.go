package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the tables the publishing pipeline needs if they are
// missing. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
