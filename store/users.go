package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eringen/quill/blog"
)

const userColumns = `id, email, name, role, password_hash, created_at`

func scanUser(rs rowScanner) (blog.User, error) {
	var (
		u         blog.User
		name      sql.NullString
		hash      sql.NullString
		createdAt sqlTime
	)
	if err := rs.Scan(&u.ID, &u.Email, &name, &u.Role, &hash, &createdAt); err != nil {
		return blog.User{}, err
	}
	if name.Valid {
		u.Name = &name.String
	}
	u.PasswordHash = hash.String
	u.CreatedAt = createdAt.Time
	return u, nil
}

// NewUser is the data needed to register an account.
type NewUser struct {
	Email        string
	Name         *string
	Role         string
	PasswordHash string
}

// CreateUser inserts a user. Emails are unique without regard to case.
func (s *Store) CreateUser(ctx context.Context, nu NewUser) (blog.User, error) {
	role := nu.Role
	if role == "" {
		role = "user"
	}
	var hash any
	if nu.PasswordHash != "" {
		hash = nu.PasswordHash
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		nu.Email, nu.Name, role, hash, s.timestamp())
	u, err := scanUser(row)
	if isUniqueViolation(err) {
		return blog.User{}, ErrEmailTaken
	}
	if err != nil {
		return blog.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (blog.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return blog.User{}, ErrNotFound
	}
	if err != nil {
		return blog.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByID looks a user up by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (blog.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return blog.User{}, ErrNotFound
	}
	if err != nil {
		return blog.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// SetUserRole changes the role of the user with the given email.
func (s *Store) SetUserRole(ctx context.Context, email, role string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE email = ?`, role, email)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
