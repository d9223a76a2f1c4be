package models

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

const MaxTitleLength = 200

var (
	ErrMissingID    = errors.New("missing id")
	ErrMissingTitle = errors.New("missing title")
	ErrMissingName  = errors.New("missing name")
	ErrBadPosition  = errors.New("position must be finite")
	ErrTitleTooLong = errors.New("title too long")
	ErrDuplicateID  = errors.New("duplicate item id")
	ErrDanglingLink = errors.New("connection to unknown item")
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are real numbers. JSON cannot
// carry NaN or infinities.
func (p Position) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// BoardItem is a single planning artifact placed on a board canvas.
type BoardItem struct {
	ID          string    `json:"id"`
	BoardID     string    `json:"board_id,omitempty"`
	Type        ItemType  `json:"type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Position    Position  `json:"position"`
	Color       Color     `json:"color"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	Assignee    string    `json:"assignee,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	Tags        []string  `json:"tags"`
	Comments    []Comment `json:"comments"`
	Connections []string  `json:"connections"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Board is a named, ordered collection of items.
type Board struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Type        BoardType   `json:"board_type,omitempty"`
	Items       []BoardItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Normalize fills the defaults a stored item must carry: color from its type,
// medium priority, todo status and non-nil slices.
func (it *BoardItem) Normalize() {
	if it.Color == "" {
		_, _, it.Color = TypeDefaults(it.Type)
	}
	if it.Priority == "" {
		it.Priority = PriorityMedium
	}
	if it.Status == "" {
		it.Status = StatusTodo
	}
	if it.Tags == nil {
		it.Tags = []string{}
	}
	if it.Comments == nil {
		it.Comments = []Comment{}
	}
	if it.Connections == nil {
		it.Connections = []string{}
	}
}

// Validate checks id presence, title bounds and enum membership. Empty
// priority and status are accepted; Normalize fills them.
func (it BoardItem) Validate() error {
	if it.ID == "" {
		return ErrMissingID
	}
	if it.Title == "" {
		return fmt.Errorf("item %s: %w", it.ID, ErrMissingTitle)
	}
	if len(it.Title) > MaxTitleLength {
		return fmt.Errorf("item %s: %w", it.ID, ErrTitleTooLong)
	}
	if !it.Type.Valid() {
		return fmt.Errorf("item %s: %w: %q", it.ID, ErrInvalidType, it.Type)
	}
	if !it.Position.Finite() {
		return fmt.Errorf("item %s: %w", it.ID, ErrBadPosition)
	}
	if it.Color != "" && !it.Color.Valid() {
		return fmt.Errorf("item %s: %w: %q", it.ID, ErrInvalidColor, it.Color)
	}
	if it.Priority != "" && !it.Priority.Valid() {
		return fmt.Errorf("item %s: %w: %q", it.ID, ErrInvalidPriority, it.Priority)
	}
	if it.Status != "" && !it.Status.Valid() {
		return fmt.Errorf("item %s: %w: %q", it.ID, ErrInvalidStatus, it.Status)
	}
	return nil
}

// Clone returns a deep copy of the item.
func (it BoardItem) Clone() BoardItem {
	out := it
	out.Tags = slices.Clone(it.Tags)
	out.Comments = slices.Clone(it.Comments)
	out.Connections = slices.Clone(it.Connections)
	return out
}

func (b Board) Clone() Board {
	out := b
	out.Items = make([]BoardItem, len(b.Items))
	for i, it := range b.Items {
		out.Items[i] = it.Clone()
	}
	return out
}

// IndexOf returns the position of the item with the given id, or -1.
func (b Board) IndexOf(id string) int {
	for i, it := range b.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Validate checks the board header, every item, id uniqueness and that every
// connection points at an item on the same board.
func (b Board) Validate() error {
	if b.ID == "" {
		return ErrMissingID
	}
	if b.Name == "" {
		return fmt.Errorf("board %s: %w", b.ID, ErrMissingName)
	}
	if b.Type != "" && !b.Type.Valid() {
		return fmt.Errorf("board %s: %w: %q", b.ID, ErrInvalidBoardType, b.Type)
	}
	ids := make(map[string]struct{}, len(b.Items))
	for _, it := range b.Items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := ids[it.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		ids[it.ID] = struct{}{}
	}
	for _, it := range b.Items {
		for _, c := range it.Connections {
			if _, ok := ids[c]; !ok {
				return fmt.Errorf("item %s: %w: %s", it.ID, ErrDanglingLink, c)
			}
		}
	}
	return nil
}

// Snapshot is the persisted part of a workspace.
type Snapshot struct {
	Version        int       `json:"version"`
	Boards         []Board   `json:"boards"`
	CurrentBoardID string    `json:"current_board_id,omitempty"`
	Posts          []Post    `json:"posts"`
	SavedAt        time.Time `json:"saved_at"`
}
