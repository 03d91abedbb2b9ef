package cmdutils

import (
	"fmt"
	"io"
	"strings"

	"github.com/ksfoundation/oneshot/internal/schema"
	"github.com/ksfoundation/oneshot/internal/shared/llmutils"
)

const Logo = "⚡"

// PrintResponse writes the reply text followed by one line per tool the
// model requested.
func PrintResponse(w io.Writer, resp schema.AgentResponse) {
	if content := llmutils.CleanLocal(resp.Content); content != "" {
		fmt.Fprintf(w, "\n%s oneshot\n%s\n", Logo, content)
	}
	if len(resp.ToolCalls) == 0 {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, "\nTools used:")
	for _, tc := range resp.ToolCalls {
		mark := "✓"
		if !tc.Succeeded() {
			mark = "✗"
		}
		line := fmt.Sprintf("  %s %-28s %s", mark, tc.ToolName, tc.Outcome)
		if tc.Error != "" {
			line += ": " + llmutils.Truncate(tc.Error, 80)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintln(w)
}

// Table prints rows as left-aligned columns under a dashed header rule.
func Table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len([]rune(h))
	}
	for _, r := range rows {
		for i := range header {
			if i < len(r) && len([]rune(r[i])) > widths[i] {
				widths[i] = len([]rune(r[i]))
			}
		}
	}

	printRow := func(cells []string) {
		var sb strings.Builder
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(cell)
			if i < len(header)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))+2))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}

	printRow(header)
	total := 0
	for _, wd := range widths {
		total += wd + 2
	}
	fmt.Fprintln(w, strings.Repeat("-", total-2))
	for _, r := range rows {
		printRow(r)
	}
}
