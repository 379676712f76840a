// Package sqlgen turns structured query intents into SQL against the
// single logical customers table. Segment definitions and metric
// expressions are trusted configuration content and are interpolated
// verbatim; nothing here defends against hostile definitions.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/semquery/semquery/internal/semantic"
)

const DefaultTable = "customers"

// incomeColumn is the designated nullable column. Metrics whose expression
// mentions it get an IS NOT NULL predicate. The check is a substring test
// against the expression text, not dependency analysis.
const incomeColumn = "Income"

type Generator struct {
	repo  *semantic.Repository
	table string
}

func New(repo *semantic.Repository, table string) *Generator {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	return &Generator{repo: repo, table: table}
}

// PointMetricQuery builds a single-value query for a metric, optionally
// filtered to one segment. Metrics typed sum or calculated are averaged;
// raw metrics emit their expression unwrapped.
func (g *Generator) PointMetricQuery(metricName string, filter *semantic.SegmentRef) (string, error) {
	metric, err := g.repo.LookupMetric(metricName)
	if err != nil {
		return "", err
	}

	var predicates []string
	if filter != nil {
		segment, err := g.repo.LookupSegment(filter.Type, filter.Name)
		if err != nil {
			return "", err
		}
		predicates = append(predicates, "("+segment.Definition+")")
	}
	if referencesIncome(metric.SQL) {
		predicates = append(predicates, incomeColumn+" IS NOT NULL")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectExpression(metric))
	b.WriteString(" AS value\nFROM ")
	b.WriteString(g.table)
	writeWhere(&b, predicates)
	return b.String(), nil
}

// SegmentBreakdownQuery buckets every row into one of the type's segments
// (document order) or 'Other', then aggregates the metric per bucket. The
// income null filter is unconditional here so every breakdown shares the
// same denominator.
func (g *Generator) SegmentBreakdownQuery(metricName, segmentType string) (string, error) {
	metric, err := g.repo.LookupMetric(metricName)
	if err != nil {
		return "", err
	}
	segments := g.repo.Segments(segmentType)

	var b strings.Builder
	b.WriteString("SELECT\n  CASE\n")
	for _, segment := range segments {
		fmt.Fprintf(&b, "    WHEN %s THEN '%s'\n", segment.Definition, segment.Label)
	}
	b.WriteString("    ELSE 'Other'\n  END AS segment,\n")
	b.WriteString("  COUNT(*) AS customer_count,\n")
	fmt.Fprintf(&b, "  ROUND(AVG(%s), 2) AS avg_value\n", metric.SQL)
	fmt.Fprintf(&b, "FROM %s\n", g.table)
	fmt.Fprintf(&b, "WHERE %s IS NOT NULL\n", incomeColumn)
	b.WriteString("GROUP BY segment\nORDER BY avg_value DESC")
	return b.String(), nil
}

// ComparisonQuery builds two structurally identical per-segment aggregates
// joined with UNION ALL. UNION ALL is load-bearing: both rows must survive
// even when the segments produce identical aggregates.
func (g *Generator) ComparisonQuery(metricName string, a, b semantic.SegmentRef) (string, error) {
	metric, err := g.repo.LookupMetric(metricName)
	if err != nil {
		return "", err
	}
	segmentA, err := g.repo.LookupSegment(a.Type, a.Name)
	if err != nil {
		return "", err
	}
	segmentB, err := g.repo.LookupSegment(b.Type, b.Name)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	g.writeComparisonArm(&sb, metric, segmentA)
	sb.WriteString("\nUNION ALL\n")
	g.writeComparisonArm(&sb, metric, segmentB)
	return sb.String(), nil
}

func (g *Generator) writeComparisonArm(b *strings.Builder, metric semantic.Metric, segment semantic.Segment) {
	fmt.Fprintf(b, "SELECT '%s' AS segment, COUNT(*) AS customers, ROUND(AVG(%s), 2) AS avg_value\n", segment.Label, metric.SQL)
	fmt.Fprintf(b, "FROM %s\n", g.table)
	fmt.Fprintf(b, "WHERE (%s)\n  AND %s IS NOT NULL", segment.Definition, incomeColumn)
}

func selectExpression(metric semantic.Metric) string {
	switch metric.Type {
	case semantic.MetricTypeSum, semantic.MetricTypeCalculated:
		return "AVG(" + metric.SQL + ")"
	default:
		return metric.SQL
	}
}

func referencesIncome(expression string) bool {
	return strings.Contains(expression, incomeColumn)
}

func writeWhere(b *strings.Builder, predicates []string) {
	for i, predicate := range predicates {
		if i == 0 {
			b.WriteString("\nWHERE ")
		} else {
			b.WriteString("\n  AND ")
		}
		b.WriteString(predicate)
	}
}
