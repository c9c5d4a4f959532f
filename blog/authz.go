package blog

import (
	"context"
	"errors"
	"fmt"
)

// Authorize resolves ident to a user row and requires the admin role.
// It runs on every mutating call; the decision is never cached.
func (s *Service) Authorize(ctx context.Context, ident *Identity) (User, error) {
	if ident == nil || ident.Email == "" {
		return User{}, ErrUnauthorized
	}
	u, err := s.store.GetUserByEmail(ctx, ident.Email)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrForbidden
	}
	if err != nil {
		return User{}, fmt.Errorf("look up user: %w", err)
	}
	if !u.IsAdmin() {
		return User{}, ErrForbidden
	}
	return u, nil
}
