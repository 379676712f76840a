// Package intent defines the structured request contract between the
// natural-language resolver and the query generator.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/semquery/semquery/internal/semantic"
)

var ErrMalformed = errors.New("intent: malformed")

type Kind string

const (
	KindMetricQuery      Kind = "metric_query"
	KindSegmentBreakdown Kind = "segment_breakdown"
	KindComparison       Kind = "comparison"
)

type Comparison struct {
	SegmentA semantic.SegmentRef `json:"segment_a"`
	SegmentB semantic.SegmentRef `json:"segment_b"`
}

// Intent is one of three request shapes. Kind selects the shape; the
// remaining fields are kind-specific.
type Intent struct {
	Kind        Kind        `json:"intent"`
	Metric      string      `json:"metric"`
	SegmentType string      `json:"segment_type,omitempty"`
	Segment     string      `json:"segment,omitempty"`
	Comparison  *Comparison `json:"comparison,omitempty"`
}

// Filter returns the optional metric_query segment filter, or nil when the
// intent is unfiltered.
func (in Intent) Filter() *semantic.SegmentRef {
	if in.Segment == "" {
		return nil
	}
	return &semantic.SegmentRef{Type: in.SegmentType, Name: in.Segment}
}

// Resolver turns a natural-language question into a structured intent.
type Resolver interface {
	Resolve(ctx context.Context, question string) (Intent, error)
}

// Parse decodes and shape-checks an intent document. An unrecognized kind
// or a missing required field fails with ErrMalformed; it is never coerced
// into one of the valid shapes.
func Parse(raw []byte) (Intent, error) {
	var in Intent
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&in); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := in.CheckShape(); err != nil {
		return Intent{}, err
	}
	return in, nil
}

// CheckShape validates required fields per kind without consulting the
// semantic repository.
func (in Intent) CheckShape() error {
	if strings.TrimSpace(in.Metric) == "" {
		return fmt.Errorf("%w: metric is required", ErrMalformed)
	}
	switch in.Kind {
	case KindMetricQuery:
		if (in.Segment == "") != (in.SegmentType == "") {
			return fmt.Errorf("%w: segment and segment_type must be set together", ErrMalformed)
		}
		if in.Comparison != nil {
			return fmt.Errorf("%w: comparison is not valid for metric_query", ErrMalformed)
		}
	case KindSegmentBreakdown:
		if strings.TrimSpace(in.SegmentType) == "" {
			return fmt.Errorf("%w: segment_type is required for segment_breakdown", ErrMalformed)
		}
	case KindComparison:
		if in.Comparison == nil {
			return fmt.Errorf("%w: comparison is required for comparison intent", ErrMalformed)
		}
		if err := checkRef(in.Comparison.SegmentA, "segment_a"); err != nil {
			return err
		}
		if err := checkRef(in.Comparison.SegmentB, "segment_b"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unrecognized intent %q", ErrMalformed, string(in.Kind))
	}
	return nil
}

// Validate resolves every referenced name against the repository. It is the
// gate between intent parsing and SQL generation: unknown names are
// rejected here, before any SQL is built.
func (in Intent) Validate(repo *semantic.Repository) error {
	if err := in.CheckShape(); err != nil {
		return err
	}
	if _, err := repo.LookupMetric(in.Metric); err != nil {
		return err
	}
	switch in.Kind {
	case KindMetricQuery:
		if in.Segment != "" {
			if _, err := repo.LookupSegment(in.SegmentType, in.Segment); err != nil {
				return err
			}
		}
	case KindComparison:
		if _, err := repo.LookupSegment(in.Comparison.SegmentA.Type, in.Comparison.SegmentA.Name); err != nil {
			return err
		}
		if _, err := repo.LookupSegment(in.Comparison.SegmentB.Type, in.Comparison.SegmentB.Name); err != nil {
			return err
		}
	}
	return nil
}

func checkRef(ref semantic.SegmentRef, field string) error {
	if strings.TrimSpace(ref.Type) == "" || strings.TrimSpace(ref.Name) == "" {
		return fmt.Errorf("%w: %s requires type and name", ErrMalformed, field)
	}
	return nil
}
