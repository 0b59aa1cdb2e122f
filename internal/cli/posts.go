package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/me/quill/internal/guard"
	"github.com/me/quill/pkg/model"
)

func newPostsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and manage posts",
	}
	cmd.AddCommand(
		newPostsListCmd(a),
		newPostsShowCmd(a),
		newPostsMineCmd(a),
		newPostsCreateCmd(a),
		newPostsEditCmd(a),
		newPostsDeleteCmd(a),
	)
	return cmd
}

func printPosts(w io.Writer, posts []model.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-40s  %-20s  %-10s  %s\n", "ID", "TITLE", "AUTHOR", "STATUS", "CREATED")
	fmt.Fprintf(w, "%-6s  %-40s  %-20s  %-10s  %s\n", "--", "-----", "------", "------", "-------")
	for _, p := range posts {
		fmt.Fprintf(w, "%-6d  %-40s  %-20s  %-10s  %s\n",
			p.ID, truncate(p.Title, 40), truncate(p.Author, 20), p.Status, ago(p.CreatedAt))
	}
}

func newPostsListCmd(a *app) *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := model.ParseSortOrder(sortBy)
			if err != nil {
				return err
			}
			posts, err := a.api.ListPosts(cmd.Context())
			if err != nil {
				return failed("list posts", err)
			}
			printPosts(cmd.OutOrStdout(), model.SortPosts(posts, order))
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", string(model.SortNewest), "Sort order: date-desc or alpha-asc")
	return cmd
}

func newPostsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <post_id>",
		Short: "Show a post and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "post")
			if err != nil {
				return err
			}
			post, err := a.api.GetPost(cmd.Context(), id)
			if err != nil {
				return failed("get post", err)
			}
			comments, err := a.api.ListComments(cmd.Context(), id)
			if err != nil {
				return failed("list comments", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", post.Title)
			fmt.Fprintf(out, "  by %s, %s (%s)\n\n", post.Author, ago(post.CreatedAt), post.Status)
			fmt.Fprintf(out, "%s\n", post.Content)
			if len(comments) > 0 {
				fmt.Fprintf(out, "\nComments (%d):\n", len(comments))
				printComments(out, comments)
			}
			return nil
		},
	}
}

func newPostsMineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "mine",
		Short:       "List your own posts",
		Args:        cobra.NoArgs,
		Annotations: gatedOn(guard.RouteDashboard),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := a.session.Current().User()
			if !ok {
				return guard.ErrLoginRequired
			}
			posts, err := a.api.ListPostsByAuthor(cmd.Context(), user.ID)
			if err != nil {
				return failed("list posts", err)
			}
			printPosts(cmd.OutOrStdout(), posts)
			return nil
		},
	}
}

func newPostsCreateCmd(a *app) *cobra.Command {
	var title, content, status string

	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Publish a new post",
		Args:        cobra.NoArgs,
		Annotations: gatedOn(guard.RoutePostNew),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := a.session.Current().User()
			if !ok {
				return guard.ErrLoginRequired
			}
			st, err := model.ParsePostStatus(status)
			if err != nil {
				return err
			}
			post := &model.Post{Title: title, Content: content, Author: user.Name, Status: st}
			if err := post.Validate(); err != nil {
				return err
			}
			created, err := a.api.CreatePost(cmd.Context(), post)
			if err != nil {
				return failed("create post", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created post %d: %s\n", created.ID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Post title")
	cmd.Flags().StringVar(&content, "content", "", "Post body")
	cmd.Flags().StringVar(&status, "status", string(model.PostPublished), "PUBLISHED or DRAFT")
	return cmd
}

func newPostsEditCmd(a *app) *cobra.Command {
	var title, content, status string

	cmd := &cobra.Command{
		Use:         "edit <post_id>",
		Short:       "Change a post's title, body or status",
		Args:        cobra.ExactArgs(1),
		Annotations: gatedOn(guard.RoutePostEdit),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "post")
			if err != nil {
				return err
			}
			post, err := a.api.GetPost(cmd.Context(), id)
			if err != nil {
				return failed("get post", err)
			}

			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("content") && !flags.Changed("status") {
				return fmt.Errorf("nothing to change: pass --title, --content or --status")
			}
			if flags.Changed("title") {
				post.Title = title
			}
			if flags.Changed("content") {
				post.Content = content
			}
			if flags.Changed("status") {
				if post.Status, err = model.ParsePostStatus(status); err != nil {
					return err
				}
			}
			if err := post.Validate(); err != nil {
				return err
			}

			updated, err := a.api.UpdatePost(cmd.Context(), id, post)
			if err != nil {
				return failed("update post", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated post %d: %s\n", updated.ID, updated.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New body")
	cmd.Flags().StringVar(&status, "status", "", "PUBLISHED or DRAFT")
	return cmd
}

func newPostsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete <post_id>",
		Short:       "Delete a post",
		Args:        cobra.ExactArgs(1),
		Annotations: gatedOn(guard.RoutePostDelete),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "post")
			if err != nil {
				return err
			}
			if err := a.api.DeletePost(cmd.Context(), id); err != nil {
				return failed("delete post", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %d.\n", id)
			return nil
		},
	}
}
