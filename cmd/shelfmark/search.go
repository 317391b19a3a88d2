package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog without opening the TUI",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.mirror.Close()

			query := strings.Join(args, " ")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := a.client.SearchBooks(ctx, query, page, a.cfg.UI.PageSize)
			if err != nil {
				return err
			}

			if len(result.Books) == 0 {
				fmt.Printf("No results for %q.\n", query)
				return nil
			}
			for _, b := range result.Books {
				line := fmt.Sprintf("%-14s %s", b.ID, b.Title)
				if b.Author != "" {
					line += " · " + b.Author
				}
				if b.PubYear > 0 {
					line += fmt.Sprintf(" (%d)", b.PubYear)
				}
				fmt.Println(line)
			}
			fmt.Printf("\n%d results, page %d", result.TotalCount, result.Page)
			if result.HasNextPage() {
				fmt.Printf(" (use --page %d for more)", result.Page+1)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	return cmd
}
