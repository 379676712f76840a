package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/semquery/semquery/internal/history"
)

func TestHistoryReturnsRecentRecords(t *testing.T) {
	deps := testDependencies(t)
	deps.History = &fakeHistory{records: []history.Record{
		{ID: 2, Question: "q2", IntentKind: "metric_query", Status: history.StatusOK, CreatedAt: time.Now()},
		{ID: 1, Question: "q1", IntentKind: "comparison", Status: history.StatusFailed, ErrorCode: "UNKNOWN_METRIC", CreatedAt: time.Now().Add(-time.Hour)},
	}}

	h := NewHandler(testConfig(t, nil), deps)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history?limit=10", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Records []history.Record `json:"records"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Records) != 2 || body.Records[0].ID != 2 {
		t.Fatalf("records = %+v", body.Records)
	}
}

func TestHistoryRejectsInvalidLimit(t *testing.T) {
	h := NewHandler(testConfig(t, nil), testDependencies(t))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history?limit=zero", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHistoryMapsStoreFailure(t *testing.T) {
	deps := testDependencies(t)
	deps.History = &fakeHistory{listErr: errors.New("db down")}

	h := NewHandler(testConfig(t, nil), deps)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "HISTORY_ERROR") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	deps := testDependencies(t)
	deps.History = nil

	h := NewHandler(testConfig(t, nil), deps)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history", nil))

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
}
