// controllers/book_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"lsys/app"
	"lsys/catalog"
	"lsys/metrics"
	"lsys/views"

	"github.com/gin-gonic/gin"
)

type BookController struct{ *Srv }

func NewBookController(s *Srv) *BookController { return &BookController{Srv: s} }

// GET /?q=&avail=1
func (bc *BookController) List(c *gin.Context) {
	acc, _ := app.CurrentAccount(c)
	q := c.Query("q")
	onlyAvail := c.Query("avail") == "1"

	books := bc.Books.Search(q)
	if onlyAvail {
		free := books[:0]
		for _, b := range books {
			if b.Status.IsAvailable() {
				free = append(free, b)
			}
		}
		books = free
	}

	c.HTML(http.StatusOK, "list", bc.page(c, "Books", app.H{
		"Books":         views.NewBookRows(books, acc.UID, bc.Books.Today()),
		"Query":         q,
		"OnlyAvailable": onlyAvail,
	}))
}

// GET /book?bid=
func (bc *BookController) Show(c *gin.Context) {
	b, ok := bc.lookup(c, c.Query("bid"))
	if !ok {
		return
	}
	acc, _ := app.CurrentAccount(c)
	c.HTML(http.StatusOK, "book", bc.page(c, b.Name, app.H{
		"Row":  views.NewBookRow(b, acc.UID, bc.Books.Today()),
		"Days": int(catalog.ReservationPeriod.Hours() / 24),
	}))
}

// GET /reserve?bid=
func (bc *BookController) ShowReserve(c *gin.Context) {
	b, ok := bc.lookup(c, c.Query("bid"))
	if !ok {
		return
	}
	acc, _ := app.CurrentAccount(c)
	today := bc.Books.Today()
	c.HTML(http.StatusOK, "reserve_confirm", bc.page(c, "Reserve", app.H{
		"Row":   views.NewBookRow(b, acc.UID, today),
		"Until": today.Add(catalog.ReservationPeriod),
	}))
}

// POST /reserve  bid=
func (bc *BookController) Reserve(c *gin.Context) {
	acc, _ := app.CurrentAccount(c)
	bid, err := strconv.ParseInt(c.PostForm("bid"), 10, 64)
	if err != nil {
		bc.renderError(c, http.StatusBadRequest, "Invalid book id")
		return
	}

	out, err := bc.Books.Reserve(c.Request.Context(), bid, acc.UID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrBookNotFound):
			metrics.ReservationsTotal.WithLabelValues("not_found").Inc()
			bc.renderError(c, statusFor(err), "No book with such ID")
		case errors.Is(err, catalog.ErrStaleSnapshot):
			metrics.ReservationsTotal.WithLabelValues("stale").Inc()
			bc.renderError(c, statusFor(err), "The book changed in the meantime, please reload it")
		default:
			metrics.ReservationsTotal.WithLabelValues("error").Inc()
			bc.Log.Error().Err(err).Int64("bid", bid).Int64("uid", acc.UID).Msg("reserve")
			bc.renderError(c, statusFor(err), "Could not save the reservation")
		}
		return
	}
	metrics.ReservationsTotal.WithLabelValues(out.Kind.String()).Inc()

	b, _ := bc.Books.Get(bid)
	bc.Log.Info().Int64("bid", bid).Int64("uid", acc.UID).Stringer("outcome", out.Kind).Msg("reserve")
	c.HTML(http.StatusOK, "reserve_result", bc.page(c, "Reserve", app.H{
		"Outcome": out.Kind.String(),
		"Due":     out.Due,
		"Book":    b,
	}))
}

// lookup parses bid and renders the error page itself when it fails.
func (bc *BookController) lookup(c *gin.Context, raw string) (catalog.Book, bool) {
	bid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		bc.renderError(c, http.StatusBadRequest, "Invalid book id")
		return catalog.Book{}, false
	}
	b, ok := bc.Books.Get(bid)
	if !ok {
		bc.renderError(c, http.StatusNotFound, "No book with such ID")
		return catalog.Book{}, false
	}
	return b, true
}
