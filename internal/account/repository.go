package account

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coviddx/platform/internal/shared/errors"
	"github.com/coviddx/platform/internal/shared/types"
)

// Repository provides database operations for accounts
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new account repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new account
func (r *Repository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (
			id, name, login_id, email, mobile, password_hash,
			locality, address, city, role, status
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		)`

	_, err := r.pool.Exec(ctx, query,
		account.ID, account.Name, account.LoginID, account.Email, account.Mobile,
		account.PasswordHash,
		account.Locality, account.Address, account.City,
		account.Role, account.Status,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("account with this login, email or mobile already exists")
		}
		return errors.Wrap(err, "failed to create account")
	}

	return nil
}

const accountColumns = `
	id, name, login_id, email, mobile, password_hash,
	locality, address, city, role, status,
	created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	err := row.Scan(
		&account.ID, &account.Name, &account.LoginID, &account.Email, &account.Mobile,
		&account.PasswordHash,
		&account.Locality, &account.Address, &account.City,
		&account.Role, &account.Status,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Get retrieves an account by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Account, error) {
	query := `SELECT` + accountColumns + `FROM accounts WHERE id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("account", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}

	return account, nil
}

// GetByLoginID retrieves an account by its login identifier
func (r *Repository) GetByLoginID(ctx context.Context, loginID string) (*Account, error) {
	query := `SELECT` + accountColumns + `FROM accounts WHERE login_id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, loginID))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("account", loginID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account by login")
	}

	return account, nil
}

// ListFilter narrows the account listing
type ListFilter struct {
	Status *Status
	Role   *Role
}

// List retrieves accounts ordered by registration time, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*Account, error) {
	query := `SELECT` + accountColumns + `FROM accounts WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.Status != nil {
		query += ` AND status = $` + strconv.Itoa(argNum)
		args = append(args, *filter.Status)
		argNum++
	}
	if filter.Role != nil {
		query += ` AND role = $` + strconv.Itoa(argNum)
		args = append(args, *filter.Role)
		argNum++
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list accounts")
	}
	defer rows.Close()

	accounts := []*Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan account")
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateStatus transitions an account's activation status
func (r *Repository) UpdateStatus(ctx context.Context, id types.ID, status Status) error {
	query := `UPDATE accounts SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return errors.Wrap(err, "failed to update account status")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("account", id.String())
	}

	return nil
}

