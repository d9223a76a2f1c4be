package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harrylevesque/boardroom/internal/board"
	"github.com/harrylevesque/boardroom/internal/models"
)

var errNothingToUpdate = errors.New("nothing to update: set at least one field flag")

// fieldFlags are the add flags that move an item off its type defaults.
var fieldFlags = []string{"title", "content", "color", "priority", "status", "assignee", "due", "tag", "link"}

// itemFlags are the editable item fields shared by add and update.
type itemFlags struct {
	title    string
	content  string
	color    string
	priority string
	status   string
	assignee string
	due      string
	tags     []string
	x, y     float64
}

func (f *itemFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "item title")
	fs.StringVar(&f.content, "content", "", "item body")
	fs.StringVar(&f.color, "color", "", "gold, blue, green, purple, red, orange, cyan or pink")
	fs.StringVar(&f.priority, "priority", "", "low, medium, high or critical")
	fs.StringVar(&f.status, "status", "", "todo, in-progress, completed or blocked")
	fs.StringVar(&f.assignee, "assignee", "", "person responsible")
	fs.StringVar(&f.due, "due", "", "due date, free form")
	fs.StringSliceVar(&f.tags, "tag", nil, "tag, repeatable")
	fs.Float64Var(&f.x, "x", 0, "canvas x")
	fs.Float64Var(&f.y, "y", 0, "canvas y")
}

// patch builds an ItemPatch from the flags the user actually set.
func (f *itemFlags) patch(fs *pflag.FlagSet) (models.ItemPatch, error) {
	var p models.ItemPatch
	if fs.Changed("title") {
		p.Title = &f.title
	}
	if fs.Changed("content") {
		p.Content = &f.content
	}
	if fs.Changed("color") {
		c, err := models.ParseColor(f.color)
		if err != nil {
			return p, err
		}
		p.Color = &c
	}
	if fs.Changed("priority") {
		pr, err := models.ParsePriority(f.priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if fs.Changed("status") {
		s, err := models.ParseStatus(f.status)
		if err != nil {
			return p, err
		}
		p.Status = &s
	}
	if fs.Changed("assignee") {
		p.Assignee = &f.assignee
	}
	if fs.Changed("due") {
		p.DueDate = &f.due
	}
	if fs.Changed("tag") {
		p.Tags = &f.tags
	}
	if fs.Changed("x") || fs.Changed("y") {
		p.Position = &models.Position{X: f.x, Y: f.y}
	}
	return p, nil
}

func itemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Edit items on the current board",
	}

	var addFlags itemFlags
	var links []string
	addCmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Add an item; unset fields take the type's defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseItemType(args[0])
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			var pos *models.Position
			if fs.Changed("x") || fs.Changed("y") {
				pos = &models.Position{X: addFlags.x, Y: addFlags.y}
			}
			var it models.BoardItem
			if countChanged(fs, fieldFlags...) == 0 {
				it, err = ws.AddItemOfType(cmd.Context(), t, pos)
			} else {
				it, err = addItem(cmd, t, pos, &addFlags, links)
			}
			if err != nil {
				return err
			}
			return printItem(cmd.OutOrStdout(), it)
		},
	}
	addFlags.register(addCmd.Flags())
	addCmd.Flags().StringSliceVar(&links, "link", nil, "id of an item to connect to, repeatable")

	var updFlags itemFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := updFlags.patch(cmd.Flags())
			if err != nil {
				return err
			}
			if p.Empty() {
				return errNothingToUpdate
			}
			it, err := ws.UpdateItem(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			return printItem(cmd.OutOrStdout(), it)
		},
	}
	updFlags.register(updateCmd.Flags())

	moveCmd := &cobra.Command{
		Use:   "move <id> <x> <y>",
		Short: "Move an item on the canvas",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid x: %w", err)
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid y: %w", err)
			}
			_, err = ws.MoveItem(cmd.Context(), args[0], models.Position{X: x, Y: y})
			return err
		},
	}

	advanceCmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move an item to its next status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := ws.AdvanceStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", it.Title, it.Status)
			return nil
		},
	}

	var author string
	commentCmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Comment on an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ws.AddComment(cmd.Context(), args[0], author, args[1])
			return err
		},
	}
	commentCmd.Flags().StringVar(&author, "author", "You", "comment author")

	connectCmd := &cobra.Command{
		Use:   "connect <from> <to>",
		Short: "Link one item to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ws.Connect(cmd.Context(), args[0], args[1])
			return err
		},
	}

	disconnectCmd := &cobra.Command{
		Use:   "disconnect <from> <to>",
		Short: "Remove a link between items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ws.Disconnect(cmd.Context(), args[0], args[1])
			return err
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := ws.DeleteItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(cmd.ErrOrStderr(), "item %s not found, nothing to delete\n", args[0])
			}
			return nil
		},
	}

	var (
		f          board.Filter
		types      []string
		statuses   []string
		priorities []string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List items on the current board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if f.Types, err = parseAll(types, models.ParseItemType); err != nil {
				return err
			}
			if f.Statuses, err = parseAll(statuses, models.ParseStatus); err != nil {
				return err
			}
			if f.Priorities, err = parseAll(priorities, models.ParsePriority); err != nil {
				return err
			}
			items, err := ws.Filter(f)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tPRIORITY\tTITLE")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Type, it.Status, it.Priority, it.Title)
			}
			return tw.Flush()
		},
	}
	lf := listCmd.Flags()
	lf.StringVarP(&f.Search, "search", "s", "", "case-insensitive text in title or content")
	lf.StringSliceVar(&types, "type", nil, "item type, repeatable")
	lf.StringSliceVar(&statuses, "status", nil, "status, repeatable")
	lf.StringSliceVar(&priorities, "priority", nil, "priority, repeatable")
	lf.StringVar(&f.Tag, "tag", "", "items carrying this tag")
	lf.StringVar(&f.Assignee, "assignee", "", "items assigned to this person")
	lf.StringVar(&f.Where, "where", "", `expression such as 'priority == "high" && comments > 0'`)

	cmd.AddCommand(addCmd, updateCmd, moveCmd, advanceCmd, commentCmd, connectCmd, disconnectCmd, deleteCmd, listCmd)
	return cmd
}

func addItem(cmd *cobra.Command, t models.ItemType, pos *models.Position, f *itemFlags, links []string) (models.BoardItem, error) {
	p, err := f.patch(cmd.Flags())
	if err != nil {
		return models.BoardItem{}, err
	}
	title, content, color := models.TypeDefaults(t)
	it := models.BoardItem{Type: t, Title: title, Content: content, Color: color, Connections: links}
	if pos != nil {
		it.Position = *pos
	}
	return ws.AddItem(cmd.Context(), it.Apply(p))
}

func countChanged(fs *pflag.FlagSet, names ...string) int {
	n := 0
	for _, name := range names {
		if fs.Changed(name) {
			n++
		}
	}
	return n
}

func parseAll[T any](values []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, v := range values {
		t, err := parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func printItem(w io.Writer, it models.BoardItem) error {
	if asJSON {
		return printJSON(w, it)
	}
	_, err := fmt.Fprintf(w, "%s  %s [%s, %s] %s\n", it.ID, it.Type, it.Status, it.Priority, it.Title)
	return err
}
