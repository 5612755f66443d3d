package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"blog-gateway/internal/posts"
)

var (
	postsListLimit  int
	postsListSearch string
	postsListOutput string
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Inspect the posts store directly",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored posts (newest first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if postsListOutput != "table" && postsListOutput != "json" {
			return fmt.Errorf("unsupported output format: %s", postsListOutput)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, closeRepo, err := openRepository(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		if closeRepo != nil {
			defer closeRepo() // nolint:errcheck
		}

		items, total, err := repo.List(cmd.Context(), posts.ListQuery{Limit: postsListLimit, Search: postsListSearch})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if postsListOutput == "json" {
			payload, err := json.MarshalIndent(items, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(payload))
			return err
		}

		_, err = fmt.Fprintln(out, renderPosts(items, total))
		return err
	},
}

func renderPosts(items []posts.Post, total int) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Title", "Author", "Updated"})
	for _, p := range items {
		t.AppendRow(table.Row{p.ID, truncate(p.Title, 40), p.Author, p.UpdatedAt.UTC().Format(time.RFC3339)})
	}
	t.AppendFooter(table.Row{"", "", "Total", total})
	return t.Render()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func init() {
	postsListCmd.Flags().IntVar(&postsListLimit, "limit", 20, "maximum posts to show (0 = all)")
	postsListCmd.Flags().StringVar(&postsListSearch, "q", "", "filter by title or content")
	postsListCmd.Flags().StringVar(&postsListOutput, "output-format", "table", "Output format: table|json")
	postsCmd.AddCommand(postsListCmd)
	rootCmd.AddCommand(postsCmd)
}
