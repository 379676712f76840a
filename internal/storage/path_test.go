package storage

import (
	"testing"
	"time"
)

func TestBuildDatasetPath(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 4, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildDatasetPath("customers", ts)
	if err != nil {
		t.Fatalf("BuildDatasetPath() error = %v", err)
	}
	want := "datasets/customers/date=2026-02-19/customers.parquet"
	if key != want {
		t.Fatalf("BuildDatasetPath() = %q, want %q", key, want)
	}
}

func TestBuildDatasetPathRejectsInvalidName(t *testing.T) {
	if _, err := BuildDatasetPath("../oops", time.Now()); err == nil {
		t.Fatal("expected invalid component error")
	}
}
