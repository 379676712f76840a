package query

import (
	"context"
	"time"
)

type Request struct {
	SQL      string
	RowLimit int
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Engine executes generated SQL against the customers dataset. It only
// ever sees SQL produced by the generator; it is not a general query
// endpoint.
type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}
