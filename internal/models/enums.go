package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidType is returned for an item type outside the known set.
	ErrInvalidType = errors.New("invalid item type")
	// ErrInvalidColor is returned for a color outside the palette.
	ErrInvalidColor = errors.New("invalid color")
	// ErrInvalidPriority is returned for an unknown priority.
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrInvalidStatus is returned for an unknown status.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidBoardType is returned for an unknown board type.
	ErrInvalidBoardType = errors.New("invalid board type")
	// ErrInvalidPostType is returned for an unknown post type.
	ErrInvalidPostType = errors.New("invalid post type")
)

// ItemType is the kind of planning artifact a board item represents.
type ItemType string

const (
	TypeNote            ItemType = "note"
	TypeRoadmap         ItemType = "roadmap"
	TypeObjective       ItemType = "objective"
	TypeMetric          ItemType = "metric"
	TypeSWOTStrength    ItemType = "swot-strength"
	TypeSWOTWeakness    ItemType = "swot-weakness"
	TypeSWOTOpportunity ItemType = "swot-opportunity"
	TypeSWOTThreat      ItemType = "swot-threat"
	TypeOKRObjective    ItemType = "okr-objective"
	TypeOKRKeyResult    ItemType = "okr-keyresult"
	TypeRisk            ItemType = "risk"
	TypeIdea            ItemType = "idea"
	TypeTask            ItemType = "task"
	TypeMilestone       ItemType = "milestone"
)

// ItemTypes lists every item type in display order.
var ItemTypes = []ItemType{
	TypeNote, TypeRoadmap, TypeObjective, TypeMetric,
	TypeSWOTStrength, TypeSWOTWeakness, TypeSWOTOpportunity, TypeSWOTThreat,
	TypeOKRObjective, TypeOKRKeyResult,
	TypeRisk, TypeIdea, TypeTask, TypeMilestone,
}

func (t ItemType) Valid() bool {
	_, ok := typeDefaults[t]
	return ok
}

// ParseItemType converts s into an ItemType.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

type Color string

const (
	ColorGold   Color = "gold"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorPurple Color = "purple"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorCyan   Color = "cyan"
	ColorPink   Color = "pink"
)

var Colors = []Color{ColorGold, ColorBlue, ColorGreen, ColorPurple, ColorRed, ColorOrange, ColorCyan, ColorPink}

func (c Color) Valid() bool {
	for _, v := range Colors {
		if v == c {
			return true
		}
	}
	return false
}

func ParseColor(s string) (Color, error) {
	c := Color(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c, nil
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Status is the workflow state of a board item.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// Statuses is the fixed status cycle; Next walks it in this order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted, StatusBlocked}

func (s Status) Valid() bool {
	return s.index() >= 0
}

func (s Status) index() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

// Next returns the status that follows s in the cycle. Anything outside the
// cycle is treated as todo.
func (s Status) Next() Status {
	i := s.index()
	if i < 0 {
		i = 0
	}
	return Statuses[(i+1)%len(Statuses)]
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

type BoardType string

const (
	BoardStrategic  BoardType = "strategic"
	BoardSWOT       BoardType = "swot"
	BoardOKR        BoardType = "okr"
	BoardRoadmap    BoardType = "roadmap"
	BoardBrainstorm BoardType = "brainstorm"
)

func (b BoardType) Valid() bool {
	switch b {
	case BoardStrategic, BoardSWOT, BoardOKR, BoardRoadmap, BoardBrainstorm:
		return true
	}
	return false
}

type PostType string

const (
	PostDiscussion   PostType = "discussion"
	PostAnnouncement PostType = "announcement"
	PostUpdate       PostType = "update"
)

func (p PostType) Valid() bool {
	switch p {
	case PostDiscussion, PostAnnouncement, PostUpdate:
		return true
	}
	return false
}

type itemDefaults struct {
	title   string
	content string
	color   Color
}

var typeDefaults = map[ItemType]itemDefaults{
	TypeNote:            {"Strategic Note", "Add your strategic insights here...", ColorGold},
	TypeRoadmap:         {"Roadmap Item", "Define milestone and timeline...", ColorBlue},
	TypeObjective:       {"Key Objective", "Set clear, measurable objective...", ColorGreen},
	TypeMetric:          {"Success Metric", "Define success criteria...", ColorPurple},
	TypeSWOTStrength:    {"Strength", "What advantage do we hold?", ColorGreen},
	TypeSWOTWeakness:    {"Weakness", "Where are we exposed?", ColorRed},
	TypeSWOTOpportunity: {"Opportunity", "What can we capture next?", ColorBlue},
	TypeSWOTThreat:      {"Threat", "What could set us back?", ColorOrange},
	TypeOKRObjective:    {"Objective", "Describe the qualitative goal...", ColorGold},
	TypeOKRKeyResult:    {"Key Result", "Define a measurable outcome...", ColorCyan},
	TypeRisk:            {"Risk", "Describe the risk and its mitigation...", ColorRed},
	TypeIdea:            {"Idea", "Capture the idea...", ColorPink},
	TypeTask:            {"Task", "Describe the work to be done...", ColorBlue},
	TypeMilestone:       {"Milestone", "Define the milestone date and outcome...", ColorPurple},
}

// TypeDefaults returns the placeholder title, content and color used when an
// item of type t is created without user input.
func TypeDefaults(t ItemType) (title, content string, color Color) {
	d, ok := typeDefaults[t]
	if !ok {
		return "Untitled", "", ColorGold
	}
	return d.title, d.content, d.color
}
