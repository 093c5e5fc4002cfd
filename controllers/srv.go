// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"lsys/app"
	"lsys/catalog"
	"lsys/identity"
	"lsys/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthCheck reports whether one backing service answers.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Srv struct {
	Accounts *identity.Store
	Books    *catalog.Catalogue
	Resolver session.Resolver
	Checks   []HealthCheck
	Log      zerolog.Logger

	secure     bool
	sessionTTL time.Duration
}

func GetSrv(a *app.App) *Srv {
	s := &Srv{
		Accounts:   a.Accounts,
		Books:      a.Books,
		Resolver:   a.Resolver(),
		Log:        a.Log,
		secure:     a.Config.SecureCookies(),
		sessionTTL: a.Config.Session.TTL,
	}
	if a.Repo != nil {
		s.Checks = append(s.Checks, HealthCheck{Name: "db", Check: a.Repo.Ping})
	}
	if rs, ok := a.Sessions.(*session.RedisStore); ok {
		s.Checks = append(s.Checks, HealthCheck{Name: "redis", Check: rs.Ping})
	}
	return s
}

// --- helpers ---

// setAppCookie sets the session cookie. A zero TTL makes it a browser-session
// cookie, matching a session entry that never expires server side.
func (s *Srv) setAppCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
		MaxAge:   int(s.sessionTTL / time.Second),
	})
}

func (s *Srv) clearAppCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	})
}

// issueSession mints a token for uid and sets the cookie.
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, uid int64) error {
	token, err := s.Resolver.Issue(ctx, uid)
	if err != nil {
		return err
	}
	s.setAppCookie(w, token)
	return nil
}

// page adds the fields every template reads.
func (s *Srv) page(c *gin.Context, title string, data app.H) app.H {
	if data == nil {
		data = app.H{}
	}
	data["Title"] = title
	if acc, ok := app.CurrentAccount(c); ok {
		data["Account"] = &acc
	}
	return data
}

func (s *Srv) renderError(c *gin.Context, code int, msg string) {
	c.HTML(code, "error", s.page(c, "Error!", app.H{"Message": msg}))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrNotFound), errors.Is(err, catalog.ErrBookNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, catalog.ErrStaleSnapshot):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// safeGoto keeps redirects on this site.
func safeGoto(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) {
		return "/"
	}
	return raw
}
