package board

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/harrylevesque/boardroom/internal/models"
)

// Filter narrows a list of items. Zero-valued fields match everything; all
// set fields must match.
type Filter struct {
	// Search is a case-insensitive substring of the title or content.
	Search     string
	Types      []models.ItemType
	Statuses   []models.Status
	Priorities []models.Priority
	Tag        string
	Assignee   string
	// Where is a boolean expr-lang expression over the fields of itemEnv,
	// for example `priority == "high" && "launch" in tags`.
	Where string
}

// itemEnv is the evaluation environment for Filter.Where.
type itemEnv struct {
	ID       string   `expr:"id"`
	Type     string   `expr:"type"`
	Title    string   `expr:"title"`
	Content  string   `expr:"content"`
	Status   string   `expr:"status"`
	Priority string   `expr:"priority"`
	Color    string   `expr:"color"`
	Assignee string   `expr:"assignee"`
	DueDate  string   `expr:"due_date"`
	Tags     []string `expr:"tags"`
	X        float64  `expr:"x"`
	Y        float64  `expr:"y"`
	Comments int      `expr:"comments"`
	Links    int      `expr:"connections"`
}

func envFor(it models.BoardItem) itemEnv {
	return itemEnv{
		ID:       it.ID,
		Type:     string(it.Type),
		Title:    it.Title,
		Content:  it.Content,
		Status:   string(it.Status),
		Priority: string(it.Priority),
		Color:    string(it.Color),
		Assignee: it.Assignee,
		DueDate:  it.DueDate,
		Tags:     it.Tags,
		X:        it.Position.X,
		Y:        it.Position.Y,
		Comments: len(it.Comments),
		Links:    len(it.Connections),
	}
}

// CompileWhere validates a Where expression without running it.
func CompileWhere(where string) (*vm.Program, error) {
	program, err := expr.Compile(where, expr.Env(itemEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", where, err)
	}
	return program, nil
}

// Search returns, in their original order, the items whose title or content
// contains query ignoring case. An empty query matches every item.
func Search(items []models.BoardItem, query string) []models.BoardItem {
	q := strings.ToLower(query)
	out := make([]models.BoardItem, 0, len(items))
	for _, it := range items {
		if matchesSearch(it, q) {
			out = append(out, it.Clone())
		}
	}
	return out
}

func matchesSearch(it models.BoardItem, lowered string) bool {
	if lowered == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.Title), lowered) ||
		strings.Contains(strings.ToLower(it.Content), lowered)
}

// Apply returns the matching items in their original order.
func (f Filter) Apply(items []models.BoardItem) ([]models.BoardItem, error) {
	var program *vm.Program
	if f.Where != "" {
		var err error
		if program, err = CompileWhere(f.Where); err != nil {
			return nil, err
		}
	}
	q := strings.ToLower(f.Search)
	out := make([]models.BoardItem, 0, len(items))
	for _, it := range items {
		if !matchesSearch(it, q) {
			continue
		}
		if len(f.Types) > 0 && !slices.Contains(f.Types, it.Type) {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, it.Status) {
			continue
		}
		if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, it.Priority) {
			continue
		}
		if f.Tag != "" && !slices.Contains(it.Tags, f.Tag) {
			continue
		}
		if f.Assignee != "" && !strings.EqualFold(f.Assignee, it.Assignee) {
			continue
		}
		if program != nil {
			res, err := expr.Run(program, envFor(it))
			if err != nil {
				return nil, fmt.Errorf("evaluate filter on %s: %w", it.ID, err)
			}
			if ok, _ := res.(bool); !ok {
				continue
			}
		}
		out = append(out, it.Clone())
	}
	return out, nil
}
