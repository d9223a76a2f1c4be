package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/boardroom/internal/board"
	"github.com/harrylevesque/boardroom/internal/db"
	"github.com/harrylevesque/boardroom/internal/models"
)

func templateCmd() *cobra.Command {
	kinds := make([]string, len(board.TemplateKinds))
	for i, k := range board.TemplateKinds {
		kinds[i] = string(k)
	}
	var x, y float64
	cmd := &cobra.Command{
		Use:       "template <" + strings.Join(kinds, "|") + ">",
		Short:     "Add a prebuilt arrangement of items to the current board",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := ws.ApplyTemplate(cmd.Context(), board.TemplateKind(args[0]), models.Position{X: x, Y: y})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			for _, it := range items {
				if err := printItem(cmd.OutOrStdout(), it); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&x, "x", 100, "canvas x of the template origin")
	cmd.Flags().Float64Var(&y, "y", 100, "canvas y of the template origin")
	return cmd
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Load the demo board, from the server when one is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			demo := db.DemoBoard()
			if client != nil {
				var err error
				if demo, err = client.LoadDemo(cmd.Context()); err != nil {
					return fmt.Errorf("load demo: %w", err)
				}
			}
			data, err := board.EncodeExport(demo, time.Now().UTC())
			if err != nil {
				return err
			}
			b, err := ws.ImportBoard(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current board: %s (%d items)\n", b.Name, len(b.Items))
			return nil
		},
	}
}
