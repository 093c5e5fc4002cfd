package main

import (
	"fmt"
	"io"
	"time"

	"lsys/catalog"
	"lsys/db"

	"github.com/spf13/cobra"
)

func (c *cli) holdsCmd() *cobra.Command {
	var q db.HoldsQuery
	cmd := &cobra.Command{
		Use:   "holds",
		Short: "List books with their holders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			q.Today = catalog.Day(time.Now())
			res, err := repo.ListHolds(cmd.Context(), q)
			if err != nil {
				return err
			}
			printHolds(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Q, "q", "", "filter on book name or holder email")
	cmd.Flags().StringVar(&q.State, "state", "", "available, reserved, borrowed, held or overdue")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Size, "size", 50, "rows per page")
	return cmd
}

func printHolds(w io.Writer, res *db.PagedHolds) {
	fmt.Fprintf(w, "%-6s %-40s %-10s %-30s %s\n", "BID", "Name", "State", "Holder", "Due")
	for _, h := range res.Rows {
		holder, due := "-", "-"
		if h.HolderEmail != nil {
			holder = *h.HolderEmail
		}
		if h.Due != nil {
			due = *h.Due
			if h.Overdue {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(w, "%-6d %-40s %-10s %-30s %s\n", h.BID, truncate(h.Name, 40), h.State(), truncate(holder, 30), due)
	}
	fmt.Fprintf(w, "%d of %d\n", len(res.Rows), res.Total)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
