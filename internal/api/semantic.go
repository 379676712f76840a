package api

import (
	"net/http"

	"github.com/semquery/semquery/internal/semantic"
)

type metricSummary struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type segmentSummary struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

func handleListMetrics(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repository == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SEMANTIC_NOT_CONFIGURED", "semantic repository is not configured", false, nil)
		return
	}
	if err := requireRole(r, "analyst"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	metrics := deps.Repository.Metrics()
	summaries := make([]metricSummary, 0, len(metrics))
	for _, metric := range metrics {
		summaries = append(summaries, metricSummary{
			Name:  metric.Name,
			Label: metric.Label,
			Type:  string(metric.Type),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"metrics": summaries})
}

func handleListSegments(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Repository == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SEMANTIC_NOT_CONFIGURED", "semantic repository is not configured", false, nil)
		return
	}
	if err := requireRole(r, "analyst"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	types := deps.Repository.SegmentTypes()
	byType := make(map[string][]segmentSummary, len(types))
	for _, segmentType := range types {
		segments := deps.Repository.Segments(segmentType)
		summaries := make([]segmentSummary, 0, len(segments))
		for _, segment := range segments {
			summaries = append(summaries, segmentSummary{
				Name:        segment.Name,
				Label:       segmentLabel(segment),
				Description: segment.Description,
			})
		}
		byType[segmentType] = summaries
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"segment_types": types,
		"segments":      byType,
	})
}

func segmentLabel(segment semantic.Segment) string {
	if segment.Label != "" {
		return segment.Label
	}
	return segment.Name
}
