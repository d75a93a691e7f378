package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// timestampLayout is fixed-width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const resultColumns = `id, execution_id, item_index, model_category, model_name, success,
	output_text, request_id, error_kind, error_message,
	input_tokens, output_tokens, total_tokens, created_at`

// ResultRepo provides methods for recorded item results.
type ResultRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewResultRepo creates a new ResultRepo.
func NewResultRepo(db *sql.DB) *ResultRepo {
	return &ResultRepo{db: db, now: time.Now}
}

// Insert stores a result. A new UUID is generated when rec.ID is empty and
// CreatedAt defaults to the current time.
func (r *ResultRepo) Insert(ctx context.Context, rec *ResultRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO item_results (`+resultColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ExecutionID, rec.ItemIndex, rec.ModelCategory, rec.ModelName, rec.Success,
		rec.OutputText, rec.RequestID, rec.ErrorKind, rec.ErrorMessage,
		rec.InputTokens, rec.OutputTokens, rec.TotalTokens, rec.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item result: %w", err)
	}
	return nil
}

// ListByExecution returns the results of one execution ordered by item index.
// Returns ErrNotFound if the execution has no recorded results.
func (r *ResultRepo) ListByExecution(ctx context.Context, executionID string) ([]ResultRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM item_results WHERE execution_id = ? ORDER BY item_index`,
		executionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution results: %w", err)
	}
	defer rows.Close()

	records, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// ListRecent returns up to limit results, newest first.
func (r *ResultRepo) ListRecent(ctx context.Context, limit int) ([]ResultRecord, error) {
	if limit <= 0 {
		return []ResultRecord{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM item_results ORDER BY created_at DESC, item_index DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// Ping verifies the database is reachable.
func (r *ResultRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanResults(rows *sql.Rows) ([]ResultRecord, error) {
	records := []ResultRecord{}
	for rows.Next() {
		var rec ResultRecord
		var createdAtStr string
		if err := rows.Scan(
			&rec.ID, &rec.ExecutionID, &rec.ItemIndex, &rec.ModelCategory, &rec.ModelName, &rec.Success,
			&rec.OutputText, &rec.RequestID, &rec.ErrorKind, &rec.ErrorMessage,
			&rec.InputTokens, &rec.OutputTokens, &rec.TotalTokens, &createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item result: %w", err)
		}

		createdAt, err := parseTimestamp(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		rec.CreatedAt = createdAt

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	// SQLite's own CURRENT_TIMESTAMP format
	return time.Parse("2006-01-02 15:04:05", s)
}
