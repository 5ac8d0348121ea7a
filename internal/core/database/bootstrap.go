package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// Fixed role set. Users default to public.
var seedRoles = []string{"public", "admin"}

var seedCountries = []string{
	"Argentina", "Bolivia", "Brazil", "Chile", "Colombia", "Costa Rica",
	"Cuba", "Dominican Republic", "Ecuador", "El Salvador", "Guatemala",
	"Honduras", "Mexico", "Nicaragua", "Panama", "Paraguay", "Peru",
	"Puerto Rico", "Spain", "United States", "Uruguay", "Venezuela",
}

// EnsureBootstrapped creates the schema on first start and seeds the
// reference tables (roles, countries). Safe to call on every boot.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {

	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'agritech_meta'
		)`).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("meta table check failed: %w", err)
	}

	if !exists {
		if err := runBootstrap(ctxBoot, db); err != nil {
			return err
		}
	}

	return seedReferenceData(ctxBoot, db)
}

func runBootstrap(ctx context.Context, db *sql.DB) error {
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}

// seedReferenceData inserts roles and countries that are not present yet.
// IDs are app-generated, like every other entity.
func seedReferenceData(ctx context.Context, db *sql.DB) error {
	for _, name := range seedRoles {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), name); err != nil {
			return fmt.Errorf("seed role %q: %w", name, err)
		}
	}
	for _, name := range seedCountries {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO countries (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), name); err != nil {
			return fmt.Errorf("seed country %q: %w", name, err)
		}
	}
	return nil
}
