package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"saha.org/internal/auth"
)

const userColumns = `id, user_type_id, company_id, permission_profile_id, firstname, lastname,
	email, phone, password_hash, active, login_enabled, created_at, last_login`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		u         auth.User
		companyID sql.NullInt64
		profileID sql.NullInt64
		phone     sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.UserTypeID, &companyID, &profileID, &u.Firstname, &u.Lastname,
		&u.Email, &phone, &u.PasswordHash, &u.Active, &u.LoginEnabled, &u.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CompanyID = companyID.Int64
	u.PermissionProfileID = profileID.Int64
	u.Phone = phone.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// FindByLogin looks a user up by e-mail (case-insensitive) or phone.
func (s *Store) FindByLogin(ctx context.Context, emailOrPhone string) (*auth.User, error) {
	key := auth.NormalizeLogin(emailOrPhone)
	if key == "" {
		return nil, auth.ErrNotFound
	}
	query := `select ` + userColumns + ` from users where lower(email) = $1`
	if !strings.Contains(key, "@") {
		query = `select ` + userColumns + ` from users where phone = $1`
	}
	return scanUser(s.db.QueryRowContext(ctx, query, key))
}

func (s *Store) Find(ctx context.Context, id int64) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id))
}

func (s *Store) TouchLogin(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `update users set last_login = now() where id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// CreateUser inserts u and sets its ID and CreatedAt.
func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if u == nil || strings.TrimSpace(u.Email) == "" || u.PasswordHash == "" {
		return auth.ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users (user_type_id, company_id, permission_profile_id, firstname, lastname,
			email, phone, password_hash, active, login_enabled)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		returning id, created_at
	`, u.UserTypeID, nullIfZero(u.CompanyID), nullIfZero(u.PermissionProfileID), u.Firstname, u.Lastname,
		strings.ToLower(strings.TrimSpace(u.Email)), nullIfEmpty(auth.NormalizeLogin(u.Phone)), u.PasswordHash, u.Active, u.LoginEnabled)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrAlreadyExists
		}
		return err
	}
	return nil
}
