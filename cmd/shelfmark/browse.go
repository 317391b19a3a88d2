package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwhitten/shelfmark/internal/domain"
)

func newBrowseCmd() *cobra.Command {
	var period string
	var category string
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Show popular and newly added books",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.mirror.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			popular, err := a.client.PopularBooks(ctx, period, limit)
			if err != nil {
				return err
			}
			recent, err := a.client.NewBooks(ctx, category, limit)
			if err != nil {
				return err
			}

			fmt.Printf("Popular this %s\n", period)
			printBooks(popular)
			fmt.Println()
			if category != "" {
				fmt.Printf("New in %s\n", category)
			} else {
				fmt.Println("New arrivals")
			}
			printBooks(recent)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "month", "popularity window (week, month, year)")
	cmd.Flags().StringVar(&category, "category", "", "limit new arrivals to a category")
	cmd.Flags().IntVar(&limit, "limit", 10, "books per list")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.mirror.Close()

			if !a.cfg.SignedIn() {
				fmt.Println("Not signed in.")
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			user, err := a.sessionSvc.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s>\n", user.Nickname, user.Email)
			return nil
		},
	}
}

func printBooks(books []domain.Book) {
	if len(books) == 0 {
		fmt.Println("  (nothing to show)")
		return
	}
	for i, b := range books {
		line := fmt.Sprintf("  %2d. %s", i+1, b.Title)
		if b.Author != "" {
			line += " · " + b.Author
		}
		fmt.Println(line)
	}
}
