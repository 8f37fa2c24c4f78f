package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	portsrepo "github.com/ledgerlink/exchange-bot/internal/core/ports/repositories"
)

// PgxSyncLogRepository implements the SyncLogRepository interface using pgxpool.
type PgxSyncLogRepository struct {
	db *pgxpool.Pool
}

// NewSyncLogRepository creates a new PgxSyncLogRepository.
func NewSyncLogRepository(db *pgxpool.Pool) *PgxSyncLogRepository {
	return &PgxSyncLogRepository{db: db}
}

var _ portsrepo.SyncLogRepository = (*PgxSyncLogRepository)(nil)

// SaveSyncRecord inserts one audit record.
func (r *PgxSyncLogRepository) SaveSyncRecord(ctx context.Context, record domain.SyncRecord) error {
	query := `
		INSERT INTO sync_records (
			sync_id, book_id, connected_book_id, event_kind, remote_id, result, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		record.SyncID, record.BookID, record.ConnectedBookID, record.EventKind,
		record.RemoteID, record.Result, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting sync record: %w", err)
	}
	return nil
}

// ListSyncRecordsByBook returns the most recent records for a base book.
func (r *PgxSyncLogRepository) ListSyncRecordsByBook(ctx context.Context, bookID string, limit int) ([]domain.SyncRecord, error) {
	query := `
		SELECT sync_id, book_id, connected_book_id, event_kind, remote_id, result, created_at
		FROM sync_records
		WHERE book_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, bookID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing sync records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.SyncRecord, 0, limit)
	for rows.Next() {
		var record domain.SyncRecord
		err := rows.Scan(
			&record.SyncID, &record.BookID, &record.ConnectedBookID, &record.EventKind,
			&record.RemoteID, &record.Result, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning sync record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync records: %w", err)
	}
	return records, nil
}
