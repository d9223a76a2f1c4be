package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/boardroom/internal/models"
)

func postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "post",
		Aliases: []string{"posts"},
		Short:   "Discussion room posts",
	}

	var np models.NewPost
	var postType string
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			np.Title = args[0]
			np.Type = models.PostType(postType)
			p, err := ws.AddPost(cmd.Context(), np)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&np.Content, "content", "", "post body")
	addCmd.Flags().StringVar(&np.Room, "room", "", "discussion room")
	addCmd.Flags().StringVar(&np.Author, "author", "You", "post author")
	addCmd.Flags().StringVar(&postType, "type", "", "discussion, announcement or update")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the post feed, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			posts := ws.Posts()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), posts)
			}
			out := cmd.OutOrStdout()
			for _, p := range posts {
				fmt.Fprintf(out, "%s  [%s] %s by %s, %d likes\n", p.ID, p.Type, p.Title, p.Author, p.Likes)
				if p.Content != "" {
					fmt.Fprintf(out, "    %s\n", strings.ReplaceAll(p.Content, "\n", "\n    "))
				}
				for _, r := range p.Replies {
					fmt.Fprintf(out, "    > %s: %s\n", r.Author, r.Content)
				}
			}
			return nil
		},
	}

	var replyAuthor string
	replyCmd := &cobra.Command{
		Use:   "reply <post-id> <text>",
		Short: "Reply to a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ws.AddReply(cmd.Context(), args[0], replyAuthor, args[1])
			return err
		},
	}
	replyCmd.Flags().StringVar(&replyAuthor, "author", "You", "reply author")

	likeCmd := &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ws.LikePost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d likes\n", p.Title, p.Likes)
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd, replyCmd, likeCmd)
	return cmd
}
