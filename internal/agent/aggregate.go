package agent

import (
	"strings"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// Placeholder is returned when tools were requested but nothing produced text.
const Placeholder = "I need to use some tools to answer that."

// Aggregate builds the response content: successful display lines in request
// order, else the model's own text, else Placeholder.
func Aggregate(modelText string, results []schema.ToolInvocationResult) string {
	var b strings.Builder
	for _, r := range results {
		if !r.Succeeded() || r.DisplayText == "" {
			continue
		}
		b.WriteString(r.DisplayText)
		b.WriteString("\n")
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		content = strings.TrimSpace(modelText)
	}
	if content == "" {
		content = Placeholder
	}
	return content
}
