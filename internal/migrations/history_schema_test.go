package migrations

import (
	"strings"
	"testing"
)

func TestHistoryMigrationContainsRequiredTableAndIndexes(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_query_history.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	requiredSnippets := []string{
		"CREATE TABLE query_history",
		"question TEXT NOT NULL",
		"sql_text TEXT NOT NULL",
		"CREATE INDEX idx_query_history_created_at_desc",
		"CREATE INDEX idx_query_history_metric",
	}

	for _, snippet := range requiredSnippets {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}
