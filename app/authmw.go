package app

import (
	"net/http"
	"net/url"

	"lsys/identity"
	"lsys/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const accountKey = "account"

// IdentifyAccount puts the session's account in the context when the cookie
// resolves, and lets the request through either way.
func IdentifyAccount(res session.Resolver, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identify(c, res, log)
		c.Next()
	}
}

// AuthRequired redirects to the login page, keeping the requested path in
// goto, unless the cookie resolves to a known account.
func AuthRequired(res session.Resolver, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identify(c, res, log); !ok {
			c.Redirect(http.StatusSeeOther, "/login?goto="+url.QueryEscape(returnPath(c.Request)))
			c.Abort()
			return
		}
		c.Next()
	}
}

// returnPath is where to go after logging in. A form post cannot be replayed
// through a redirect, so non-GET requests return to the page that sent them.
func returnPath(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RequestURI()
	}
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Host == r.Host && ref.Path != "" {
		return ref.RequestURI()
	}
	return "/"
}

func identify(c *gin.Context, res session.Resolver, log zerolog.Logger) (identity.Account, bool) {
	if acc, ok := CurrentAccount(c); ok {
		return acc, true
	}
	token, _ := c.Cookie(session.CookieName)
	acc, err := res.Resolve(c.Request.Context(), token)
	if err != nil {
		if err != session.ErrAuthRequired { // store failure wrapped in ErrAuthRequired
			log.Warn().Err(err).Msg("session lookup failed")
		}
		return identity.Account{}, false
	}
	c.Set(accountKey, acc)
	return acc, true
}

// CurrentAccount returns the account set by AuthRequired or IdentifyAccount.
func CurrentAccount(c *gin.Context) (identity.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return identity.Account{}, false
	}
	acc, ok := v.(identity.Account)
	return acc, ok
}
