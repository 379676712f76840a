package semantic

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMetric  = errors.New("semantic: unknown metric")
	ErrUnknownSegment = errors.New("semantic: unknown segment")
)

type MetricType string

const (
	MetricTypeSum        MetricType = "sum"
	MetricTypeCalculated MetricType = "calculated"
	MetricTypeRaw        MetricType = "raw"
)

// Metric is a named scalar expression over row-level columns. The expression
// must not contain an aggregate call; aggregation is applied by the query
// generator based on Type.
type Metric struct {
	Name  string     `yaml:"name"`
	Label string     `yaml:"label"`
	Type  MetricType `yaml:"type"`
	SQL   string     `yaml:"sql"`
}

// Segment is a boolean predicate identifying a customer group. Segments of
// the same type are expected to be mutually exclusive; that is a contract
// with the configuration author, not something this package enforces.
type Segment struct {
	Type        string
	Name        string
	Definition  string `yaml:"definition"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// SegmentRef names a segment without carrying its definition.
type SegmentRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type Column struct {
	Name        string
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	PIILevel    string `yaml:"pii_level"`
}

// Repository is the loaded semantic layer: segment taxonomy, column
// metadata, and metric catalog. It is immutable after Load and safe for
// concurrent readers.
type Repository struct {
	metrics        []Metric
	metricsByName  map[string]Metric
	segmentTypes   []string
	segmentsByType map[string][]Segment
	columns        map[string]Column
}

// NewRepository builds a repository from already-decoded definitions.
// Segment types and segments keep their slice order; metrics keep catalog
// order. Mainly useful for tests with fixture configurations; production
// code goes through Load.
func NewRepository(metrics []Metric, segments []Segment, columns []Column) (*Repository, error) {
	repo := &Repository{
		metricsByName:  map[string]Metric{},
		segmentsByType: map[string][]Segment{},
		columns:        map[string]Column{},
	}
	for _, metric := range metrics {
		if err := validateMetric(metric); err != nil {
			return nil, err
		}
		if _, exists := repo.metricsByName[metric.Name]; exists {
			return nil, fmt.Errorf("duplicate metric %q", metric.Name)
		}
		repo.metrics = append(repo.metrics, metric)
		repo.metricsByName[metric.Name] = metric
	}
	for _, segment := range segments {
		if segment.Type == "" || segment.Name == "" {
			return nil, fmt.Errorf("segment %q/%q: type and name are required", segment.Type, segment.Name)
		}
		if segment.Definition == "" {
			return nil, fmt.Errorf("segment %s/%s has no definition", segment.Type, segment.Name)
		}
		if segment.Label == "" {
			segment.Label = segment.Name
		}
		if _, seen := repo.segmentsByType[segment.Type]; !seen {
			repo.segmentTypes = append(repo.segmentTypes, segment.Type)
		}
		repo.segmentsByType[segment.Type] = append(repo.segmentsByType[segment.Type], segment)
	}
	for _, column := range columns {
		repo.columns[column.Name] = column
	}
	return repo, nil
}

func (r *Repository) LookupMetric(name string) (Metric, error) {
	metric, ok := r.metricsByName[name]
	if !ok {
		return Metric{}, unknownMetric(name)
	}
	return metric, nil
}

func (r *Repository) LookupSegment(segmentType, name string) (Segment, error) {
	for _, segment := range r.segmentsByType[segmentType] {
		if segment.Name == name {
			return segment, nil
		}
	}
	return Segment{}, unknownSegment(segmentType, name)
}

// MetricNames returns metric names in catalog order.
func (r *Repository) MetricNames() []string {
	names := make([]string, 0, len(r.metrics))
	for _, metric := range r.metrics {
		names = append(names, metric.Name)
	}
	return names
}

func (r *Repository) Metrics() []Metric {
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}

// SegmentTypes returns taxonomy types in document order. The order matters:
// it fixes the CASE-branch order in generated breakdown queries.
func (r *Repository) SegmentTypes() []string {
	types := make([]string, len(r.segmentTypes))
	copy(types, r.segmentTypes)
	return types
}

// Segments returns all segments of a type in document order. An unknown
// type yields an empty slice, not an error.
func (r *Repository) Segments(segmentType string) []Segment {
	segments := r.segmentsByType[segmentType]
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}

func (r *Repository) Column(name string) (Column, bool) {
	column, ok := r.columns[name]
	return column, ok
}

func unknownMetric(name string) error {
	return fmt.Errorf("metric %q: %w", name, ErrUnknownMetric)
}

func unknownSegment(segmentType, name string) error {
	return fmt.Errorf("segment %s/%s: %w", segmentType, name, ErrUnknownSegment)
}
