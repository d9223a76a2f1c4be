package models

import (
	"fmt"
	"slices"
)

// ItemPatch carries a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Type        *ItemType  `json:"type,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Content     *string    `json:"content,omitempty"`
	Position    *Position  `json:"position,omitempty"`
	Color       *Color     `json:"color,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	DueDate     *string    `json:"due_date,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Connections *[]string  `json:"connections,omitempty"`
	Comments    *[]Comment `json:"comments,omitempty"`
}

func (p ItemPatch) Empty() bool {
	return p == ItemPatch{}
}

func (p ItemPatch) Validate() error {
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, *p.Type)
	}
	if p.Title != nil {
		if *p.Title == "" {
			return ErrMissingTitle
		}
		if len(*p.Title) > MaxTitleLength {
			return ErrTitleTooLong
		}
	}
	if p.Position != nil && !p.Position.Finite() {
		return ErrBadPosition
	}
	if p.Color != nil && !p.Color.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidColor, *p.Color)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	return nil
}

// Apply returns a copy of it with every non-nil patch field assigned.
func (it BoardItem) Apply(p ItemPatch) BoardItem {
	out := it.Clone()
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Assignee != nil {
		out.Assignee = *p.Assignee
	}
	if p.DueDate != nil {
		out.DueDate = *p.DueDate
	}
	if p.Tags != nil {
		out.Tags = slices.Clone(*p.Tags)
	}
	if p.Connections != nil {
		out.Connections = slices.Clone(*p.Connections)
	}
	if p.Comments != nil {
		out.Comments = slices.Clone(*p.Comments)
	}
	return out
}
