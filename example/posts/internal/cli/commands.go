package cli

import (
	"fmt"
	"strconv"

	"github.com/kroma-labs/endpoint-go/apiclient"
	"github.com/kroma-labs/endpoint-go/example/posts/internal/posts"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <post-id>",
	Short: "Show a post and its author",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid post id %q: %w", args[0], err)
		}

		var post posts.Post
		author, err := apiclient.Then(cmd.Context(), client, posts.Get(id),
			func(p posts.Post) (*apiclient.Endpoint[posts.User], error) {
				post = p
				return posts.Author(p)
			})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "#%d %s\nby %s <%s>\n\n%s\n", post.ID, post.Title, author.Name, author.Email, post.Body)
		return nil
	},
}

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		stream := apiclient.Publish(cmd.Context(), client, posts.List(listLimit))
		defer stream.Cancel()

		for res := range stream.Results() {
			if res.Err != nil {
				return res.Err
			}
			for _, p := range res.Value {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", p.ID, p.Title)
			}
		}
		return nil
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments <post-id>",
	Short: "List the comments of a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid post id %q: %w", args[0], err)
		}

		var callErr error
		task := apiclient.FetchAsync(cmd.Context(), client, posts.Comments(id),
			func(comments []posts.Comment) {
				for _, c := range comments {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s (%s)\n  %s\n", c.Name, c.Email, c.Body)
				}
			},
			func(err error) { callErr = err },
		)
		task.Wait()
		return callErr
	},
}

var titlesCmd = &cobra.Command{
	Use:   "titles <post-id>...",
	Short: "Fetch several post titles concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoints := make([]*apiclient.Endpoint[string], 0, len(args))
		for _, arg := range args {
			id, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid post id %q: %w", arg, err)
			}
			endpoints = append(endpoints, posts.Title(id))
		}

		titles, err := apiclient.FetchAll(cmd.Context(), client, endpoints)
		if err != nil {
			return err
		}
		for i, title := range titles {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[i], title)
		}
		return nil
	},
}

var createTitle, createBody string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a post",
	RunE: func(cmd *cobra.Command, _ []string) error {
		created, err := apiclient.Fetch(cmd.Context(), client, posts.Create(posts.Post{
			UserID: 1,
			Title:  createTitle,
			Body:   createBody,
		}))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created post #%d\n", created.ID)
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 10, "maximum number of posts")

	createCmd.Flags().StringVar(&createTitle, "title", "", "post title")
	createCmd.Flags().StringVar(&createBody, "body", "", "post body")
	_ = createCmd.MarkFlagRequired("title")
}
