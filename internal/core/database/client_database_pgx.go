package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users
			(id, role_id, country_id, first_name, last_name, email, password_hash,
			 image_url, email_verified, email_verification_token, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.RoleID, user.CountryID, user.FirstName, user.LastName,
		user.Email, user.PasswordHash, user.ImageURL, user.EmailVerified,
		user.EmailVerificationToken, user.Status, user.CreatedAt)
	return wrapInsertErr(err)
}

const userColumns = `
	id, role_id, country_id, first_name, last_name, email, password_hash,
	image_url, email_verified, email_verification_token,
	password_reset_token, password_reset_expires, status, created_at
`

func (c *DatabaseClient) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.RoleID, &u.CountryID, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &u.ImageURL, &u.EmailVerified, &u.EmailVerificationToken,
		&u.PasswordResetToken, &u.PasswordResetExpires, &u.Status, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return c.scanUser(c.db.QueryRowContext(ctx, q, email))
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return c.scanUser(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email_verification_token = $1`
	return c.scanUser(c.db.QueryRowContext(ctx, q, token))
}

func (c *DatabaseClient) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE password_reset_token = $1`
	return c.scanUser(c.db.QueryRowContext(ctx, q, token))
}

// MarkEmailVerified flips the flag and burns the single-use token.
func (c *DatabaseClient) MarkEmailVerified(ctx context.Context, userID string) error {
	const q = `
		UPDATE users
		SET email_verified = TRUE, email_verification_token = NULL
		WHERE id = $1
	`
	return c.execExpectingRow(ctx, q, "user", userID)
}

func (c *DatabaseClient) SetVerificationToken(ctx context.Context, userID, token string) error {
	const q = `UPDATE users SET email_verification_token = $2 WHERE id = $1`
	return c.execExpectingRow(ctx, q, "user", userID, token)
}

func (c *DatabaseClient) SetPasswordResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	const q = `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3
		WHERE id = $1
	`
	return c.execExpectingRow(ctx, q, "user", userID, token, expires)
}

// UpdatePassword rehashes and burns any outstanding reset token.
func (c *DatabaseClient) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const q = `
		UPDATE users
		SET password_hash = $2, password_reset_token = NULL, password_reset_expires = NULL
		WHERE id = $1
	`
	return c.execExpectingRow(ctx, q, "user", userID, passwordHash)
}

// Reference data

func (c *DatabaseClient) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	const q = `SELECT id, name FROM roles WHERE name = $1`
	var r models.Role
	err := c.db.QueryRowContext(ctx, q, name).Scan(&r.ID, &r.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *DatabaseClient) ListCountries(ctx context.Context) ([]models.Country, error) {
	const q = `SELECT id, name FROM countries ORDER BY name`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Country
	for rows.Next() {
		var country models.Country
		if err := rows.Scan(&country.ID, &country.Name); err != nil {
			return nil, err
		}
		out = append(out, country)
	}
	return out, rows.Err()
}

// execExpectingRow runs an UPDATE/DELETE that must touch exactly one row.
// wrapInsertErr maps a Postgres unique violation onto core.ErrDuplicate
// so callers do not have to know pg error codes. Everything else passes
// through unchanged.
func wrapInsertErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	// 23505 = unique_violation
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", core.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (c *DatabaseClient) execExpectingRow(ctx context.Context, query, entity string, id string, args ...any) error {
	all := append([]any{id}, args...)
	res, err := c.db.ExecContext(ctx, query, all...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
