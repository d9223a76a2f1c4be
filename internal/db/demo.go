package db

import (
	"context"
	"errors"
	"time"

	"github.com/harrylevesque/boardroom/internal/models"
)

// DemoBoardID is the id of the seeded demo board. Items created without a
// board id land here.
const DemoBoardID = "e1cfe66d-9da7-4afc-a114-083d99ccecdc"

var (
	demoBoardCreated = time.Date(2025, 8, 27, 16, 3, 5, 953_000_000, time.UTC)
	demoItemsCreated = time.Date(2025, 8, 27, 16, 3, 17, 69_000_000, time.UTC)
)

// DemoBoard returns the demo "Strategic Planning Board" with its four items.
func DemoBoard() models.Board {
	item := func(id string, t models.ItemType, title, content string, x, y float64,
		c models.Color, p models.Priority, s models.Status) models.BoardItem {
		return models.BoardItem{
			ID:          id,
			BoardID:     DemoBoardID,
			Type:        t,
			Title:       title,
			Content:     content,
			Position:    models.Position{X: x, Y: y},
			Color:       c,
			Priority:    p,
			Status:      s,
			Tags:        []string{},
			Comments:    []models.Comment{},
			Connections: []string{},
			CreatedAt:   demoItemsCreated,
			UpdatedAt:   demoItemsCreated,
		}
	}
	return models.Board{
		ID:          DemoBoardID,
		Name:        "Strategic Planning Board",
		Description: "Main strategic planning workspace for the demo organization",
		Type:        models.BoardStrategic,
		Items: []models.BoardItem{
			item("3dc19a31-b99f-4bd8-b46e-b2b239f63d56", models.TypeObjective, "Q4 Revenue Target",
				"Achieve $2M ARR by end of Q4 2024", 100, 150,
				models.ColorGold, models.PriorityHigh, models.StatusInProgress),
			item("adfb2d60-09a7-410f-8665-52e40c0d268c", models.TypeNote, "Market Research",
				"Complete competitive analysis of top 5 competitors", 300, 200,
				models.ColorBlue, models.PriorityMedium, models.StatusTodo),
			item("aed9d4c0-7875-478f-ab8d-fa322a042c3f", models.TypeTask, "Launch Marketing Campaign",
				"Q4 product launch campaign preparation", 500, 100,
				models.ColorGreen, models.PriorityCritical, models.StatusInProgress),
			item("f648ace2-08ff-48e4-9d1b-9bf1663aa232", models.TypeMilestone, "Product Beta Release",
				"Beta version ready for testing", 200, 350,
				models.ColorPurple, models.PriorityHigh, models.StatusCompleted),
		},
		CreatedAt: demoBoardCreated,
		UpdatedAt: demoBoardCreated,
	}
}

// SeedDemo inserts the demo board when it is absent and reports whether it
// did so.
func SeedDemo(ctx context.Context, repo Repository) (bool, error) {
	_, err := repo.GetBoard(ctx, DemoBoardID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := repo.CreateBoard(ctx, DemoBoard()); err != nil {
		return false, err
	}
	return true, nil
}
