package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/harrylevesque/boardroom/internal/board"
	"github.com/harrylevesque/boardroom/internal/models"
)

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Manage boards",
	}

	newCmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a board and make it current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ws.AddBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), b)
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.ID)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			boards := ws.Boards()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), boards)
			}
			cur, _ := ws.CurrentBoard()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tNAME\tITEMS\tUPDATED")
			for _, b := range boards {
				mark := ""
				if b.ID == cur.ID {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", mark, b.ID, b.Name, len(b.Items), b.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Make a board current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ws.LoadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current board: %s (%d items)\n", b.Name, len(b.Items))
			return nil
		},
	}

	var raw bool
	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Render a board as markdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := boardArg(args)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), b)
			}
			md := board.RenderMarkdown(b)
			if raw {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
			if err != nil {
				return err
			}
			out, err := r.Render(md)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	showCmd.Flags().BoolVar(&raw, "raw", false, "print plain markdown")

	renameCmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ws.RenameBoard(cmd.Context(), args[0], args[1])
			return err
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := ws.DeleteBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(cmd.ErrOrStderr(), "board %s not found, nothing to delete\n", args[0])
			}
			return nil
		},
	}

	var outFile string
	exportCmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Export a board as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			data, err := ws.ExportBoard(id)
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(outFile, data, 0o600)
		},
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to a file instead of stdout")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a board exported with 'board export'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			_, err = ws.ImportBoard(cmd.Context(), data)
			return err
		},
	}

	cmd.AddCommand(newCmd, listCmd, useCmd, showCmd, renameCmd, deleteCmd, exportCmd, importCmd)
	return cmd
}

// boardArg resolves an optional board id argument, defaulting to the
// current board.
func boardArg(args []string) (models.Board, error) {
	if len(args) == 1 {
		return ws.Board(args[0])
	}
	b, ok := ws.CurrentBoard()
	if !ok {
		return models.Board{}, board.ErrNoCurrentBoard
	}
	return b, nil
}
