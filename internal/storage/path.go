package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildDatasetPath produces the object key for a published dataset file.
// Keys are date-stamped so a reseed never silently replaces an older
// publication.
func BuildDatasetPath(datasetName string, publishedAt time.Time) (string, error) {
	if err := validatePathComponent(datasetName, "dataset name"); err != nil {
		return "", err
	}
	ts := publishedAt.UTC()
	return path.Join(
		"datasets",
		datasetName,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("%s.parquet", datasetName),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
