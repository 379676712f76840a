package intent

import (
	"fmt"
	"strings"

	"github.com/semquery/semquery/internal/semantic"
)

// BuildSystemPrompt advertises the repository's segments and metrics to the
// model and pins the JSON response contract. Exact names matter: the model
// must answer with names that resolve against the repository.
func BuildSystemPrompt(repo *semantic.Repository) string {
	var b strings.Builder
	b.WriteString("You are a data analyst assistant that answers questions about customer data through a semantic layer.\n\n")

	b.WriteString("AVAILABLE CUSTOMER SEGMENTS:\n")
	for _, segmentType := range repo.SegmentTypes() {
		names := make([]string, 0)
		for _, segment := range repo.Segments(segmentType) {
			names = append(names, segment.Name)
		}
		fmt.Fprintf(&b, "  %s: %s\n", segmentType, strings.Join(names, ", "))
	}

	b.WriteString("\nAVAILABLE METRICS:\n")
	for _, name := range repo.MetricNames() {
		fmt.Fprintf(&b, "  %s\n", name)
	}

	b.WriteString(`
Understand the user's question and respond with a single JSON object:
{"intent": "metric_query|segment_breakdown|comparison", "metric": "...", "segment_type": "...", "segment": "...", "comparison": {"segment_a": {"type": "...", "name": "..."}, "segment_b": {"type": "...", "name": "..."}}}

Examples:
Question: "What's average spending for parents?"
{"intent": "metric_query", "metric": "total_spending", "segment_type": "family_status", "segment": "parents"}
Question: "Show me lifetime value by age group"
{"intent": "segment_breakdown", "metric": "customer_lifetime_value", "segment_type": "customer_age_segments"}
Question: "Compare spending for parents vs no children"
{"intent": "comparison", "metric": "total_spending", "comparison": {"segment_a": {"type": "family_status", "name": "parents"}, "segment_b": {"type": "family_status", "name": "no_children"}}}

Rules:
- Return ONLY the JSON object, no markdown and no explanation.
- Use exact metric and segment names from the lists above.
- Omit fields that do not apply to the chosen intent.
`)
	return b.String()
}
