package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/quill/internal/guard"
	"github.com/me/quill/pkg/model"
)

func newCommentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write comments",
	}
	cmd.AddCommand(newCommentsListCmd(a), newCommentsAddCmd(a))
	return cmd
}

func printComments(w io.Writer, comments []model.Comment) {
	for _, c := range comments {
		fmt.Fprintf(w, "  - %s (%s): %s\n", c.Author, ago(c.CreatedAt), c.Content)
	}
}

func newCommentsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <post_id>",
		Short: "List comments on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "post")
			if err != nil {
				return err
			}
			comments, err := a.api.ListComments(cmd.Context(), id)
			if err != nil {
				return failed("list comments", err)
			}
			if len(comments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No comments yet.")
				return nil
			}
			printComments(cmd.OutOrStdout(), comments)
			return nil
		},
	}
}

func newCommentsAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "add <post_id> <text>...",
		Short:       "Comment on a post",
		Args:        cobra.MinimumNArgs(2),
		Annotations: gatedOn(guard.RouteCommentNew),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "post")
			if err != nil {
				return err
			}
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return errors.New("comment text is empty")
			}
			user, ok := a.session.Current().User()
			if !ok {
				return guard.ErrLoginRequired
			}
			c, err := a.api.CreateComment(cmd.Context(), id, user.Name, content)
			if err != nil {
				return failed("add comment", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added comment %d to post %d.\n", c.ID, id)
			return nil
		},
	}
}
