package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/dbx"
	"github.com/dmitrijs2005/ontop/internal/server/models"
)

const userColumns = `id, email, password_hash, display_name, is_premium, premium_expires_at,
		        plan, total_sessions, created_at, last_login_at`

// SQLRepository works on both backends; only the placeholder syntax differs.
type SQLRepository struct {
	db dbx.DBTX
	d  dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, d: d}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, display_name, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, r.d.Rebind(query),
		user.Email, user.PasswordHash, user.DisplayName, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.getOne(ctx, r.d.Rebind(query), email)
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, r.d.Rebind(query), id)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u         models.User
		expiresAt sql.NullTime
		lastLogin sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.IsPremium, &expiresAt,
		&u.Plan, &u.TotalSessions, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		u.PremiumExpiresAt = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}

	return &u, nil
}

func (r *SQLRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	query :=
		`UPDATE users SET last_login_at = ?, total_sessions = total_sessions + 1
		 WHERE id = ?`

	return r.execOne(ctx, r.d.Rebind(query), at, id)
}

func (r *SQLRepository) UpdatePremium(ctx context.Context, id int64, upd models.PremiumUpdate) error {
	query :=
		`UPDATE users SET is_premium = ?, plan = ?, premium_expires_at = ?
		 WHERE id = ?`

	var expiresAt any
	if upd.ExpiresAt != nil {
		expiresAt = upd.ExpiresAt.UTC()
	}

	return r.execOne(ctx, r.d.Rebind(query), upd.IsPremium, upd.Plan, expiresAt, id)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, r.d.Rebind(`DELETE FROM users WHERE id = ?`), id)
}

func (r *SQLRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}

	return nil
}
