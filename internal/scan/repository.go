package scan

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coviddx/platform/internal/shared/errors"
	"github.com/coviddx/platform/internal/shared/types"
)

// Repository provides database operations for scans
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new scan repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new scan record
func (r *Repository) Create(ctx context.Context, scan *Scan) error {
	query := `
		INSERT INTO scans (
			id, file_name, file_path, file_hash, file_size,
			label, confidence, uploaded_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := r.pool.Exec(ctx, query,
		scan.ID, scan.FileName, scan.FilePath, scan.FileHash, scan.FileSize,
		scan.Label, scan.Confidence, scan.UploadedBy,
	)

	if err != nil {
		return errors.Wrap(err, "failed to create scan")
	}

	return nil
}

// Get retrieves a scan by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Scan, error) {
	query := `
		SELECT id, file_name, file_path, file_hash, file_size,
			label, confidence, uploaded_by, created_at
		FROM scans
		WHERE id = $1`

	scan := &Scan{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&scan.ID, &scan.FileName, &scan.FilePath, &scan.FileHash, &scan.FileSize,
		&scan.Label, &scan.Confidence, &scan.UploadedBy, &scan.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("scan", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get scan")
	}

	return scan, nil
}

// ListByUploader retrieves the scans uploaded by one account, newest
// first.
func (r *Repository) ListByUploader(ctx context.Context, uploadedBy types.ID) ([]*Scan, error) {
	query := `
		SELECT id, file_name, file_path, file_hash, file_size,
			label, confidence, uploaded_by, created_at
		FROM scans
		WHERE uploaded_by = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, uploadedBy)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scans")
	}
	defer rows.Close()

	scans := []*Scan{}
	for rows.Next() {
		scan := &Scan{}
		err := rows.Scan(
			&scan.ID, &scan.FileName, &scan.FilePath, &scan.FileHash, &scan.FileSize,
			&scan.Label, &scan.Confidence, &scan.UploadedBy, &scan.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		scans = append(scans, scan)
	}

	return scans, rows.Err()
}
