package historyrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/doc-summarizer/internal/domain/summarizer"
)

const sqlCreateHistoryTable = `
CREATE TABLE IF NOT EXISTS summary_history (
	id             UUID PRIMARY KEY,
	user_id        BIGINT      NOT NULL,
	input_type     TEXT        NOT NULL,
	file_name      TEXT        NOT NULL DEFAULT '',
	summary_type   TEXT        NOT NULL,
	tone           TEXT        NOT NULL,
	length_percent INTEGER     NOT NULL,
	summary        TEXT        NOT NULL,
	keywords       TEXT[]      NOT NULL DEFAULT '{}',
	source         TEXT        NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const sqlCreateHistoryUserIndex = `
CREATE INDEX IF NOT EXISTS idx_summary_history_user_created
	ON summary_history (user_id, created_at DESC)`

// PostgresRepository implements summarizer.HistoryRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the history table and index when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{sqlCreateHistoryTable, sqlCreateHistoryUserIndex} {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// Append inserts one history row.
func (r *PostgresRepository) Append(ctx context.Context, record summarizer.HistoryRecord) error {
	keywords := record.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO summary_history
			(id, user_id, input_type, file_name, summary_type, tone, length_percent, summary, keywords, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, record.ID, record.UserID, string(record.InputType), record.FileName, record.Type, record.Tone,
		record.Length, record.Summary, keywords, string(record.Source), record.CreatedAt)
	return err
}

// ListByUser returns the newest rows for userID.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]summarizer.HistoryRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, input_type, file_name, summary_type, tone, length_percent, summary, keywords, source, created_at
		FROM summary_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []summarizer.HistoryRecord
	for rows.Next() {
		record, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryRecord(row rowScanner) (summarizer.HistoryRecord, error) {
	var (
		record    summarizer.HistoryRecord
		inputType string
		source    string
	)
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&inputType,
		&record.FileName,
		&record.Type,
		&record.Tone,
		&record.Length,
		&record.Summary,
		&record.Keywords,
		&source,
		&record.CreatedAt,
	); err != nil {
		return summarizer.HistoryRecord{}, err
	}
	record.InputType = summarizer.InputType(inputType)
	record.Source = summarizer.Source(source)
	return record, nil
}

var _ summarizer.HistoryRepository = (*PostgresRepository)(nil)
