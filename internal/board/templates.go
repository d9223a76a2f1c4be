package board

import (
	"context"
	"fmt"

	"github.com/harrylevesque/boardroom/internal/models"
)

// TemplateKind names a prebuilt arrangement of items.
type TemplateKind string

const (
	TemplateSWOT    TemplateKind = "swot"
	TemplateOKR     TemplateKind = "okr"
	TemplateRoadmap TemplateKind = "roadmap"
)

var TemplateKinds = []TemplateKind{TemplateSWOT, TemplateOKR, TemplateRoadmap}

// Layout spacing, in canvas units.
const (
	cellWidth  = 260
	cellHeight = 180
	stepX      = 240
)

// BuildTemplate lays out the items of a template relative to origin. Ids
// come from newID; connections only reference items of the same template.
func BuildTemplate(kind TemplateKind, origin models.Position, newID func() string) ([]models.BoardItem, error) {
	at := func(dx, dy float64) models.Position {
		return models.Position{X: origin.X + dx, Y: origin.Y + dy}
	}
	item := func(t models.ItemType, title string, pos models.Position) models.BoardItem {
		defTitle, content, color := models.TypeDefaults(t)
		if title == "" {
			title = defTitle
		}
		return models.BoardItem{ID: newID(), Type: t, Title: title, Content: content, Color: color, Position: pos}
	}

	switch kind {
	case TemplateSWOT:
		return []models.BoardItem{
			item(models.TypeSWOTStrength, "", at(0, 0)),
			item(models.TypeSWOTWeakness, "", at(cellWidth, 0)),
			item(models.TypeSWOTOpportunity, "", at(0, cellHeight)),
			item(models.TypeSWOTThreat, "", at(cellWidth, cellHeight)),
		}, nil
	case TemplateOKR:
		obj := item(models.TypeOKRObjective, "", at(stepX, 0))
		items := []models.BoardItem{obj}
		for i := 0; i < 3; i++ {
			kr := item(models.TypeOKRKeyResult, fmt.Sprintf("Key Result %d", i+1), at(float64(i)*stepX, cellHeight))
			items[0].Connections = append(items[0].Connections, kr.ID)
			items = append(items, kr)
		}
		return items, nil
	case TemplateRoadmap:
		items := make([]models.BoardItem, 3)
		for i := range items {
			items[i] = item(models.TypeMilestone, fmt.Sprintf("Milestone %d", i+1), at(float64(i)*stepX, 0))
		}
		for i := 0; i < len(items)-1; i++ {
			items[i].Connections = []string{items[i+1].ID}
		}
		return items, nil
	}
	return nil, fmt.Errorf("unknown template %q", kind)
}

// ApplyTemplate adds every item of the template to the current board.
func (w *Workspace) ApplyTemplate(ctx context.Context, kind TemplateKind, origin models.Position) ([]models.BoardItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return nil, err
	}
	bi, err := w.currentLocked()
	if err != nil {
		return nil, err
	}
	tmpl, err := BuildTemplate(kind, origin, w.newID)
	if err != nil {
		return nil, err
	}

	// Items are prepared against a scratch copy so later template items can
	// reference earlier ones and a failure leaves the board untouched.
	saved := w.boards[bi]
	scratch := saved.Clone()
	w.boards[bi] = scratch
	added := make([]models.BoardItem, 0, len(tmpl))
	// Connections point forward in the OKR template, so links are attached
	// once every item exists.
	links := make(map[string][]string, len(tmpl))
	for _, it := range tmpl {
		links[it.ID] = it.Connections
		it.Connections = nil
		prepared, err := w.prepareItemLocked(bi, it)
		if err != nil {
			w.boards[bi] = saved
			return nil, err
		}
		w.boards[bi].Items = append(w.boards[bi].Items, prepared)
		added = append(added, prepared)
	}
	for i := range added {
		added[i].Connections = append(added[i].Connections, links[added[i].ID]...)
		j := w.boards[bi].IndexOf(added[i].ID)
		w.boards[bi].Items[j].Connections = append([]string{}, added[i].Connections...)
	}
	w.boards[bi].UpdatedAt = w.now()

	out := make([]models.BoardItem, len(added))
	for i, it := range added {
		w.enqueueCreateLocked(ctx, it)
		out[i] = it.Clone()
	}
	return out, w.saveLocked(ctx)
}
