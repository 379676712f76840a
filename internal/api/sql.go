package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/semquery/semquery/internal/history"
	"github.com/semquery/semquery/internal/intent"
)

type sqlResponse struct {
	Intent intent.Intent `json:"intent"`
	SQL    string        `json:"sql"`
}

// handleGenerateSQL is the dry-run surface: it takes a structured intent
// document and returns the SQL that /v1/ask would execute for it.
func handleGenerateSQL(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Generator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SQL_NOT_CONFIGURED", "sql generation is not configured", false, nil)
		return
	}
	if err := requireRole(r, "analyst"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "failed to read request body", false, nil)
		return
	}

	start := time.Now()
	parsed, err := intent.Parse(raw)
	if err != nil {
		if errors.Is(err, intent.ErrMalformed) {
			writeError(r.Context(), w, http.StatusUnprocessableEntity, "MALFORMED_INTENT", err.Error(), false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid intent document", false, map[string]any{"details": err.Error()})
		return
	}

	sqlText, code, err := generateSQL(deps, parsed)
	if err != nil {
		recordHistory(r.Context(), deps, history.InsertInput{
			IntentKind: string(parsed.Kind), Metric: parsed.Metric,
			Status: history.StatusFailed, ErrorCode: code,
			DurationMS: time.Since(start).Milliseconds(),
		})
		writeError(r.Context(), w, http.StatusUnprocessableEntity, code, err.Error(), false, nil)
		return
	}

	recordHistory(r.Context(), deps, history.InsertInput{
		IntentKind: string(parsed.Kind), Metric: parsed.Metric, SQL: sqlText,
		DurationMS: time.Since(start).Milliseconds(),
	})
	writeJSON(w, http.StatusOK, sqlResponse{Intent: parsed, SQL: sqlText})
}
