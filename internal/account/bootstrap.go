package account

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/coviddx/platform/internal/shared/config"
	"github.com/coviddx/platform/internal/shared/errors"
	"github.com/coviddx/platform/internal/shared/types"
)

// EnsureAdmin creates the configured administrator account if no admin
// exists yet. Without one, nobody could activate registered users.
// Returns the created account, or nil when an admin already exists or
// no password is configured.
func EnsureAdmin(ctx context.Context, repo *Repository, cfg config.AdminConfig) (*Account, error) {
	if cfg.Password == "" {
		return nil, nil
	}

	role := RoleAdmin
	existing, err := repo.List(ctx, ListFilter{Role: &role})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash admin password")
	}

	admin := &Account{
		ID:           types.NewID(),
		Name:         cfg.Name,
		LoginID:      cfg.LoginID,
		Email:        cfg.Email,
		Mobile:       "n/a",
		Role:         RoleAdmin,
		Status:       StatusActivated,
		PasswordHash: string(hash),
	}

	if err := repo.Create(ctx, admin); err != nil {
		return nil, err
	}

	return admin, nil
}
