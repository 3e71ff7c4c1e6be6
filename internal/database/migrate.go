package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "embed"
)

//go:embed schema.sql
var schema string

// Migrate applies the embedded schema. Every statement uses
// CREATE TABLE IF NOT EXISTS so running it on an existing database is a
// no-op.
func Migrate(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
