package board

import (
	"fmt"
	"strings"

	"github.com/harrylevesque/boardroom/internal/models"
)

// RenderMarkdown writes a board as a markdown document with one section per
// status, in cycle order. Empty sections are omitted.
func RenderMarkdown(b models.Board) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", b.Name)
	if b.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", b.Description)
	}
	if len(b.Items) == 0 {
		sb.WriteString("_No items yet._\n")
		return sb.String()
	}

	titles := make(map[string]string, len(b.Items))
	for _, it := range b.Items {
		titles[it.ID] = it.Title
	}
	for _, st := range models.Statuses {
		var section []models.BoardItem
		for _, it := range b.Items {
			if it.Status == st {
				section = append(section, it)
			}
		}
		if len(section) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s (%d)\n\n", st, len(section))
		for _, it := range section {
			fmt.Fprintf(&sb, "- **%s** `%s` _%s_", it.Title, it.Type, it.Priority)
			if it.Assignee != "" {
				fmt.Fprintf(&sb, " @%s", it.Assignee)
			}
			if it.DueDate != "" {
				fmt.Fprintf(&sb, " due %s", it.DueDate)
			}
			sb.WriteString("\n")
			if it.Content != "" {
				fmt.Fprintf(&sb, "  %s\n", it.Content)
			}
			for _, c := range it.Connections {
				if t, ok := titles[c]; ok {
					fmt.Fprintf(&sb, "  - links to %s\n", t)
				}
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
