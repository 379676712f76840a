package semantic

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	TaxonomyFile = "taxonomy.yml"
	MetadataFile = "metadata.yml"
	MetricsFile  = "semantic_layer.yml"
)

var aggregateCallPattern = regexp.MustCompile(`(?i)\b(avg|sum|count|min|max)\s*\(`)

// Load reads the three semantic layer documents from dir. Any missing or
// unparseable document is a fatal configuration error; there is no
// partial-load fallback.
func Load(dir string) (*Repository, error) {
	segments, err := loadTaxonomy(filepath.Join(dir, TaxonomyFile))
	if err != nil {
		return nil, err
	}
	columns, err := loadMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	metricsPath := filepath.Join(dir, MetricsFile)
	metrics, err := loadMetrics(metricsPath)
	if err != nil {
		return nil, err
	}

	repo, err := NewRepository(metrics, segments, columns)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", metricsPath, err)
	}
	return repo, nil
}

// loadTaxonomy decodes through yaml.Node so that segment types and names
// keep their document order.
func loadTaxonomy(path string) ([]Segment, error) {
	var doc struct {
		Taxonomy yaml.Node `yaml:"taxonomy"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}
	if doc.Taxonomy.Kind == 0 {
		return nil, fmt.Errorf("load %s: missing taxonomy section", path)
	}
	if doc.Taxonomy.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("load %s: taxonomy must be a mapping", path)
	}

	segments := make([]Segment, 0)
	for i := 0; i+1 < len(doc.Taxonomy.Content); i += 2 {
		segmentType := doc.Taxonomy.Content[i].Value
		segmentsNode := doc.Taxonomy.Content[i+1]
		if segmentsNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("load %s: segment type %q must be a mapping", path, segmentType)
		}

		for j := 0; j+1 < len(segmentsNode.Content); j += 2 {
			name := segmentsNode.Content[j].Value
			var segment Segment
			if err := segmentsNode.Content[j+1].Decode(&segment); err != nil {
				return nil, fmt.Errorf("load %s: segment %s/%s: %w", path, segmentType, name, err)
			}
			segment.Type = segmentType
			segment.Name = name
			segment.Definition = strings.TrimSpace(segment.Definition)
			if segment.Definition == "" {
				return nil, fmt.Errorf("load %s: segment %s/%s has no definition", path, segmentType, name)
			}
			segments = append(segments, segment)
		}
	}
	return segments, nil
}

func loadMetadata(path string) ([]Column, error) {
	var doc struct {
		Columns map[string]Column `yaml:"columns"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Columns) == 0 {
		return nil, fmt.Errorf("load %s: missing columns section", path)
	}

	columns := make([]Column, 0, len(doc.Columns))
	for name, column := range doc.Columns {
		column.Name = name
		columns = append(columns, column)
	}
	return columns, nil
}

func loadMetrics(path string) ([]Metric, error) {
	var doc struct {
		Metrics []Metric `yaml:"metrics"`
	}
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Metrics) == 0 {
		return nil, fmt.Errorf("load %s: missing metrics section", path)
	}

	for i := range doc.Metrics {
		doc.Metrics[i].SQL = strings.TrimSpace(doc.Metrics[i].SQL)
	}
	return doc.Metrics, nil
}

func validateMetric(metric Metric) error {
	if strings.TrimSpace(metric.Name) == "" {
		return fmt.Errorf("metric with empty name")
	}
	switch metric.Type {
	case MetricTypeSum, MetricTypeCalculated, MetricTypeRaw:
	default:
		return fmt.Errorf("metric %q: invalid type %q", metric.Name, metric.Type)
	}
	if strings.TrimSpace(metric.SQL) == "" {
		return fmt.Errorf("metric %q: empty sql expression", metric.Name)
	}
	// Aggregation belongs to the generator, not the definition.
	if aggregateCallPattern.MatchString(metric.SQL) {
		return fmt.Errorf("metric %q: expression contains an aggregate call", metric.Name)
	}
	return nil
}

func readYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
