package repository

import (
	"context"
	"fmt"

	"diamondpay/database"
	"diamondpay/models"
)

// LedgerArchiveRepository persists one durable row per balance mutation.
// Writes are best-effort from the services' perspective: an archive failure
// is logged by the caller and never rolls back the Redis-side mutation.
type LedgerArchiveRepository struct {
	db *database.DB
}

// NewLedgerArchiveRepository creates a new ledger archive repository
func NewLedgerArchiveRepository(db *database.DB) *LedgerArchiveRepository {
	return &LedgerArchiveRepository{db: db}
}

// Record inserts an archive entry. Replayed ids are ignored so retried
// operations do not duplicate rows.
func (r *LedgerArchiveRepository) Record(ctx context.Context, entry *models.ArchiveEntry) error {
	query := `
		INSERT INTO ledger_archive (id, user_id, ledger, entry_type, amount, reference_id, reference_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Ledger,
		entry.EntryType,
		entry.Amount,
		entry.ReferenceID,
		entry.ReferenceType,
		entry.Description,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record archive entry %s: %w", entry.ID, err)
	}
	return nil
}

// ListByUser returns a user's archived mutations, newest first.
func (r *LedgerArchiveRepository) ListByUser(ctx context.Context, userID string, ledger models.Ledger, limit int) ([]*models.ArchiveEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, user_id, ledger, entry_type, amount, reference_id, reference_type, description, created_at
		FROM ledger_archive
		WHERE user_id = $1 AND ledger = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, userID, ledger, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive entries for user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.ArchiveEntry
	for rows.Next() {
		var entry models.ArchiveEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Ledger,
			&entry.EntryType,
			&entry.Amount,
			&entry.ReferenceID,
			&entry.ReferenceType,
			&entry.Description,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan archive entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate archive entries: %w", err)
	}
	return entries, nil
}
