// Package views holds the HTML templates and the per-book presentation rows
// they render.
package views

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"lsys/catalog"
)

//go:embed templates/*.tmpl
var files embed.FS

// Templates parses every page template. It panics on a malformed template,
// which can only happen at build time.
func Templates() *template.Template {
	return template.Must(template.New("lsys").Funcs(Funcs()).ParseFS(files, "templates/*.tmpl"))
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"day":  catalog.FormatDay,
		"join": strings.Join,
	}
}

// BookRow is a book as one viewer sees it.
type BookRow struct {
	Book      catalog.Book
	State     string
	Mine      bool
	Due       *time.Time
	Countdown *catalog.Countdown
}

func NewBookRow(b catalog.Book, viewer int64, today time.Time) BookRow {
	row := BookRow{Book: b, State: b.Status.State().String()}
	mine, due := b.Status.Ownership(viewer)
	if due != nil {
		cd := catalog.CountdownTo(*due, today)
		row.Mine, row.Due, row.Countdown = mine, due, &cd
	}
	return row
}

func NewBookRows(books []catalog.Book, viewer int64, today time.Time) []BookRow {
	rows := make([]BookRow, len(books))
	for i, b := range books {
		rows[i] = NewBookRow(b, viewer, today)
	}
	return rows
}
