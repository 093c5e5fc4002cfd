package controllers

import (
	"context"
	"net/http"
	"time"

	"lsys/app"

	"github.com/gin-gonic/gin"
)

// GET /healthz
func (s *Srv) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := app.H{}
	for _, hc := range s.Checks {
		if err := hc.Check(ctx); err != nil {
			failed[hc.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, app.H{"ok": false, "failed": failed})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "books": s.Books.Len(), "accounts": s.Accounts.Len()})
}

// Missing renders the not-found page for unknown routes.
func (s *Srv) Missing(c *gin.Context) {
	c.HTML(http.StatusNotFound, "missing", s.page(c, "Missing", app.H{"Path": c.Request.URL.Path}))
}
