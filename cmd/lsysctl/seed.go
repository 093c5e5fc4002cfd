package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"lsys/db"

	"github.com/spf13/cobra"
)

func (c *cli) seedCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import books from a CSV file (isbn,name,published,authors)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			books, err := parseBooks(f)
			if err != nil {
				return err
			}
			repo, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			for _, nb := range books {
				bid, err := repo.AddBook(cmd.Context(), nb)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-6d %-13d %s\n", bid, nb.ISBN, nb.Name)
			}
			c.log.Info().Int("books", len(books)).Str("file", path).Msg("seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "csv", "", "CSV file to import")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

// parseBooks reads isbn,name,published,authors rows. Authors are separated
// by ';'. A first row whose isbn column is "isbn" is treated as a header.
func parseBooks(r io.Reader) ([]db.NewBook, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var books []db.NewBook
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "isbn") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want at least isbn,name", line)
		}
		isbn, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad isbn %q", line, rec[0])
		}
		nb := db.NewBook{ISBN: isbn, Name: strings.TrimSpace(rec[1])}
		if nb.Name == "" {
			return nil, fmt.Errorf("line %d: empty name", line)
		}
		if len(rec) > 2 {
			nb.Published = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			for _, a := range strings.Split(rec[3], ";") {
				if a = strings.TrimSpace(a); a != "" {
					nb.Authors = append(nb.Authors, a)
				}
			}
		}
		books = append(books, nb)
	}
	return books, nil
}
