package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/semquery/semquery/internal/history"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, in history.InsertInput) (history.Record, error) {
	status := in.Status
	if status == "" {
		status = history.StatusOK
	}

	query := `
INSERT INTO query_history (question, intent_kind, metric, sql_text, row_count, duration_ms, status, error_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at`

	record := history.Record{
		Question:   in.Question,
		IntentKind: in.IntentKind,
		Metric:     in.Metric,
		SQL:        in.SQL,
		RowCount:   in.RowCount,
		DurationMS: in.DurationMS,
		Status:     status,
		ErrorCode:  in.ErrorCode,
	}
	if err := s.db.QueryRowContext(ctx, query,
		in.Question, in.IntentKind, in.Metric, in.SQL, in.RowCount, in.DurationMS, status, in.ErrorCode,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return history.Record{}, fmt.Errorf("insert history record: %w", err)
	}
	return record, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]history.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, question, intent_kind, metric, sql_text, row_count, duration_ms, status, error_code, created_at
FROM query_history
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]history.Record, 0)
	for rows.Next() {
		var record history.Record
		if err := rows.Scan(
			&record.ID,
			&record.Question,
			&record.IntentKind,
			&record.Metric,
			&record.SQL,
			&record.RowCount,
			&record.DurationMS,
			&record.Status,
			&record.ErrorCode,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return records, nil
}
