package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/semquery/semquery/internal/history"
	"github.com/semquery/semquery/internal/intent"
	"github.com/semquery/semquery/internal/semantic"
)

func postAsk(t *testing.T, deps Dependencies, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(testConfig(t, nil), deps)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body)))
	return rr
}

func TestAskAnswersMetricQuestion(t *testing.T) {
	deps := testDependencies(t)
	engine := deps.Engine.(*fakeEngine)
	store := deps.History.(*fakeHistory)

	rr := postAsk(t, deps, `{"question":"what is average total spending?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var response askResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	wantSQL := "SELECT AVG(MntWines + MntGoldProds) AS value\nFROM customers"
	if response.SQL != wantSQL {
		t.Fatalf("sql = %q, want %q", response.SQL, wantSQL)
	}
	if engine.lastSQL != wantSQL {
		t.Fatalf("engine received sql = %q", engine.lastSQL)
	}
	if len(response.Rows) != 1 || response.Columns[0] != "value" {
		t.Fatalf("unexpected result payload: %+v", response)
	}

	if len(store.inserts) != 1 {
		t.Fatalf("history inserts = %d", len(store.inserts))
	}
	record := store.inserts[0]
	if record.IntentKind != string(intent.KindMetricQuery) || record.Metric != "total_spending" {
		t.Fatalf("history record = %+v", record)
	}
	if record.SQL != wantSQL || record.RowCount != 1 {
		t.Fatalf("history record = %+v", record)
	}
}

func TestAskRejectsUnknownMetric(t *testing.T) {
	deps := testDependencies(t)
	deps.Resolver = &fakeResolver{intent: intent.Intent{
		Kind:   intent.KindMetricQuery,
		Metric: "profit",
	}}

	rr := postAsk(t, deps, `{"question":"average profit?"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error_code"] != "UNKNOWN_METRIC" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
}

func TestAskRejectsUnknownSegment(t *testing.T) {
	deps := testDependencies(t)
	deps.Resolver = &fakeResolver{intent: intent.Intent{
		Kind:        intent.KindMetricQuery,
		Metric:      "income",
		SegmentType: "family_status",
		Segment:     "empty_nesters",
	}}

	rr := postAsk(t, deps, `{"question":"income for empty nesters?"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "UNKNOWN_SEGMENT") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestAskMapsMalformedIntentTo422(t *testing.T) {
	deps := testDependencies(t)
	deps.Resolver = &fakeResolver{err: intent.ErrMalformed}

	rr := postAsk(t, deps, `{"question":"do everything"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "MALFORMED_INTENT") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestAskMapsResolverFailureTo502(t *testing.T) {
	deps := testDependencies(t)
	deps.Resolver = &fakeResolver{err: errors.New("upstream unreachable")}

	rr := postAsk(t, deps, `{"question":"average income?"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "RESOLVER_FAILED") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestAskReturns501WithoutResolver(t *testing.T) {
	deps := testDependencies(t)
	deps.Resolver = nil

	rr := postAsk(t, deps, `{"question":"average income?"}`)
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "RESOLVER_NOT_CONFIGURED") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestAskMapsExecutionFailure(t *testing.T) {
	deps := testDependencies(t)
	deps.Engine = &fakeEngine{err: errors.New("parser error")}
	store := deps.History.(*fakeHistory)

	rr := postAsk(t, deps, `{"question":"average total spending?"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "QUERY_EXECUTION_FAILED") {
		t.Fatalf("body = %s", rr.Body.String())
	}
	if len(store.inserts) != 1 || store.inserts[0].Status != history.StatusFailed {
		t.Fatalf("history inserts = %+v", store.inserts)
	}
}

func TestAskSucceedsWhenHistoryInsertFails(t *testing.T) {
	deps := testDependencies(t)
	deps.History = &fakeHistory{insertErr: errors.New("db down")}

	rr := postAsk(t, deps, `{"question":"average total spending?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, history failures must not fail the request", rr.Code)
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	rr := postAsk(t, testDependencies(t), `{"question":"  "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestAskSegmentBreakdownQuestion(t *testing.T) {
	deps := testDependencies(t)
	deps.Resolver = &fakeResolver{intent: intent.Intent{
		Kind:        intent.KindSegmentBreakdown,
		Metric:      "income",
		SegmentType: "family_status",
	}}
	engine := deps.Engine.(*fakeEngine)

	rr := postAsk(t, deps, `{"question":"income by family status"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(engine.lastSQL, "ELSE 'Other'") {
		t.Fatalf("generated sql = %q", engine.lastSQL)
	}
	if !strings.Contains(engine.lastSQL, "WHERE Income IS NOT NULL") {
		t.Fatalf("generated sql = %q", engine.lastSQL)
	}
}

func TestAskComparisonQuestion(t *testing.T) {
	deps := testDependencies(t)
	deps.Resolver = &fakeResolver{intent: intent.Intent{
		Kind:   intent.KindComparison,
		Metric: "income",
		Comparison: &intent.Comparison{
			SegmentA: semantic.SegmentRef{Type: "family_status", Name: "parents"},
			SegmentB: semantic.SegmentRef{Type: "family_status", Name: "no_children"},
		},
	}}
	engine := deps.Engine.(*fakeEngine)

	rr := postAsk(t, deps, `{"question":"parents vs no children income"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if strings.Count(engine.lastSQL, "UNION ALL") != 1 {
		t.Fatalf("generated sql = %q", engine.lastSQL)
	}
}
