package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/semquery/semquery/internal/history"
	"github.com/semquery/semquery/internal/intent"
	"github.com/semquery/semquery/internal/observability"
	"github.com/semquery/semquery/internal/query"
	"github.com/semquery/semquery/internal/semantic"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Intent  intent.Intent  `json:"intent"`
	SQL     string         `json:"sql"`
	Columns []string       `json:"columns"`
	Rows    [][]any        `json:"rows"`
	Stats   map[string]any `json:"stats"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Generator == nil || deps.Engine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "ask dependencies are not configured", false, nil)
		return
	}
	if deps.Resolver == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RESOLVER_NOT_CONFIGURED", "intent resolver is not configured", false, nil)
		return
	}
	if err := requireRole(r, "analyst"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	question := strings.TrimSpace(request.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	start := time.Now()
	defer func() { observability.ObserveQuestion(time.Since(start)) }()

	resolved, err := deps.Resolver.Resolve(r.Context(), question)
	if err != nil {
		if errors.Is(err, intent.ErrMalformed) {
			observability.ObserveIntentRejection("MALFORMED_INTENT")
			recordHistory(r.Context(), deps, history.InsertInput{
				Question: question, Status: history.StatusFailed, ErrorCode: "MALFORMED_INTENT",
				DurationMS: time.Since(start).Milliseconds(),
			})
			writeError(r.Context(), w, http.StatusUnprocessableEntity, "MALFORMED_INTENT", "resolver produced a malformed intent", false, map[string]any{"details": err.Error()})
			return
		}
		recordHistory(r.Context(), deps, history.InsertInput{
			Question: question, Status: history.StatusFailed, ErrorCode: "RESOLVER_FAILED",
			DurationMS: time.Since(start).Milliseconds(),
		})
		writeError(r.Context(), w, http.StatusBadGateway, "RESOLVER_FAILED", "failed to resolve intent", true, map[string]any{"details": err.Error()})
		return
	}
	observability.ObserveIntentResolution(string(resolved.Kind))

	sqlText, code, err := generateSQL(deps, resolved)
	if err != nil {
		observability.ObserveIntentRejection(code)
		recordHistory(r.Context(), deps, history.InsertInput{
			Question: question, IntentKind: string(resolved.Kind), Metric: resolved.Metric,
			Status: history.StatusFailed, ErrorCode: code,
			DurationMS: time.Since(start).Milliseconds(),
		})
		writeError(r.Context(), w, http.StatusUnprocessableEntity, code, err.Error(), false, nil)
		return
	}

	execStart := time.Now()
	result, err := deps.Engine.Execute(r.Context(), query.Request{SQL: sqlText, RowLimit: deps.RowLimit})
	observability.ObserveQueryExecution(time.Since(execStart), err != nil)
	if err != nil {
		recordHistory(r.Context(), deps, history.InsertInput{
			Question: question, IntentKind: string(resolved.Kind), Metric: resolved.Metric, SQL: sqlText,
			Status: history.StatusFailed, ErrorCode: "QUERY_EXECUTION_FAILED",
			DurationMS: time.Since(start).Milliseconds(),
		})
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error()})
		return
	}

	recordHistory(r.Context(), deps, history.InsertInput{
		Question: question, IntentKind: string(resolved.Kind), Metric: resolved.Metric, SQL: sqlText,
		RowCount: len(result.Rows), DurationMS: time.Since(start).Milliseconds(),
	})

	writeJSON(w, http.StatusOK, askResponse{
		Intent:  resolved,
		SQL:     sqlText,
		Columns: result.Columns,
		Rows:    result.Rows,
		Stats: map[string]any{
			"duration_ms": result.Duration.Milliseconds(),
			"row_count":   len(result.Rows),
		},
	})
}

// generateSQL validates the intent against the repository and dispatches to
// the generator shape it names. The returned code identifies which contract
// rule failed when err is non-nil.
func generateSQL(deps Dependencies, in intent.Intent) (string, string, error) {
	if err := in.CheckShape(); err != nil {
		return "", "MALFORMED_INTENT", err
	}

	var (
		sqlText string
		err     error
	)
	switch in.Kind {
	case intent.KindMetricQuery:
		sqlText, err = deps.Generator.PointMetricQuery(in.Metric, in.Filter())
		observability.ObserveQueryGenerated("point_metric")
	case intent.KindSegmentBreakdown:
		sqlText, err = deps.Generator.SegmentBreakdownQuery(in.Metric, in.SegmentType)
		observability.ObserveQueryGenerated("segment_breakdown")
	case intent.KindComparison:
		sqlText, err = deps.Generator.ComparisonQuery(in.Metric, in.Comparison.SegmentA, in.Comparison.SegmentB)
		observability.ObserveQueryGenerated("comparison")
	default:
		return "", "MALFORMED_INTENT", fmt.Errorf("unsupported intent %q", in.Kind)
	}
	if err != nil {
		switch {
		case errors.Is(err, semantic.ErrUnknownMetric):
			return "", "UNKNOWN_METRIC", err
		case errors.Is(err, semantic.ErrUnknownSegment):
			return "", "UNKNOWN_SEGMENT", err
		default:
			return "", "MALFORMED_INTENT", err
		}
	}
	return sqlText, "", nil
}

// recordHistory never fails the request; write errors are logged and the
// response proceeds without the audit row.
func recordHistory(ctx context.Context, deps Dependencies, in history.InsertInput) {
	if deps.History == nil {
		return
	}
	if _, err := deps.History.Insert(ctx, in); err != nil && deps.Logger != nil {
		deps.Logger.ErrorContext(ctx, "history insert failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("error", err.Error()),
		)
	}
}
