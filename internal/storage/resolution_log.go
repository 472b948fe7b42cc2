package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wallet-resolver/internal/models"
)

// ResolutionEventRepository records which layer served each wallet
// resolution. Operators watch this log to detect defaults being served for
// startups with no real mapping.
type ResolutionEventRepository struct {
	db *ClickHouseDB
}

// NewResolutionEventRepository creates a new resolution event repository
func NewResolutionEventRepository(db *ClickHouseDB) *ResolutionEventRepository {
	return &ResolutionEventRepository{db: db}
}

// CreateSchema creates the resolution_events table if it does not exist
func (r *ResolutionEventRepository) CreateSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS resolution_events (
			id String,
			subject_kind String,
			subject_id String,
			wallet_address String,
			source String,
			defaulted UInt8,
			resolved_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (subject_kind, subject_id, resolved_at)
	`
	if err := r.db.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create resolution_events table: %w", err)
	}
	return nil
}

// Record inserts a resolution event
func (r *ResolutionEventRepository) Record(ctx context.Context, event *models.ResolutionEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.ResolvedAt.IsZero() {
		event.ResolvedAt = time.Now().UTC()
	}

	defaulted := uint8(0)
	if event.Defaulted {
		defaulted = 1
	}

	query := `
		INSERT INTO resolution_events (id, subject_kind, subject_id, wallet_address, source, defaulted, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	err := r.db.Conn().Exec(ctx, query,
		event.ID,
		event.SubjectKind,
		event.SubjectID,
		event.WalletAddress,
		string(event.Source),
		defaulted,
		event.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution event: %w", err)
	}
	return nil
}

// CountDefaulted returns how many resolutions fell through to the default
// wallet since the given time
func (r *ResolutionEventRepository) CountDefaulted(ctx context.Context, since time.Time) (uint64, error) {
	var count uint64
	query := `SELECT count() FROM resolution_events WHERE defaulted = 1 AND resolved_at >= $1`

	if err := r.db.Conn().QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count defaulted resolutions: %w", err)
	}
	return count, nil
}
