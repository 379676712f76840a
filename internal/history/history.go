// Package history records every answered question so analysts can audit
// what SQL was generated and how it ran.
package history

import (
	"context"
	"time"
)

type Record struct {
	ID         int64     `json:"id"`
	Question   string    `json:"question"`
	IntentKind string    `json:"intent_kind"`
	Metric     string    `json:"metric"`
	SQL        string    `json:"sql"`
	RowCount   int       `json:"row_count"`
	DurationMS int64     `json:"duration_ms"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type InsertInput struct {
	Question   string
	IntentKind string
	Metric     string
	SQL        string
	RowCount   int
	DurationMS int64
	Status     string
	ErrorCode  string
}

type Store interface {
	Insert(ctx context.Context, in InsertInput) (Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	HealthCheck(ctx context.Context) error
}
