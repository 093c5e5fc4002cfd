// controllers/auth_controller.go
package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"lsys/app"
	"lsys/identity"
	"lsys/metrics"
	"lsys/session"

	"github.com/gin-gonic/gin"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

type loginForm struct {
	Email string `form:"email"`
	Pass  string `form:"pass"`
}

type registerForm struct {
	Name  string `form:"name"`
	Email string `form:"email"`
	Pass  string `form:"pass"`
}

// GET /login and GET /register
func (ac *AuthController) ShowLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login", ac.page(c, "Log in", app.H{"Goto": safeGoto(c.Query("goto"))}))
}

// POST /login?goto=
func (ac *AuthController) Login(c *gin.Context) {
	dest := safeGoto(c.Query("goto"))
	var in loginForm
	_ = c.ShouldBind(&in)

	acc, err := ac.Accounts.Login(c.Request.Context(), in.Email, in.Pass)
	if err != nil {
		var msg, result string
		switch {
		case errors.Is(err, identity.ErrNotFound):
			msg, result = "No such email", "not_found"
		case errors.Is(err, identity.ErrInvalidCredentials):
			msg, result = "Wrong password", "invalid_credentials"
		default:
			msg, result = "Login failed", "error"
			ac.Log.Error().Err(err).Msg("login")
		}
		metrics.LoginsTotal.WithLabelValues(result).Inc()
		c.HTML(statusFor(err), "login", ac.page(c, "Log in", app.H{
			"Goto": dest, "LoginError": msg, "Email": in.Email,
		}))
		return
	}

	if err := ac.issueSession(c.Request.Context(), c.Writer, acc.UID); err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		ac.Log.Error().Err(err).Int64("uid", acc.UID).Msg("issue session")
		c.HTML(http.StatusInternalServerError, "login", ac.page(c, "Log in", app.H{
			"Goto": dest, "LoginError": "Could not start a session", "Email": in.Email,
		}))
		return
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	c.Redirect(http.StatusSeeOther, dest)
}

// POST /register?goto=
func (ac *AuthController) Register(c *gin.Context) {
	dest := safeGoto(c.Query("goto"))
	var in registerForm
	_ = c.ShouldBind(&in)

	acc, err := ac.Accounts.Register(c.Request.Context(), in.Name, in.Email, in.Pass)
	if err != nil {
		result := "error"
		if errors.Is(err, identity.ErrValidation) {
			result = "invalid"
		}
		if statusFor(err) == http.StatusInternalServerError {
			ac.Log.Error().Err(err).Msg("register")
		}
		metrics.RegistrationsTotal.WithLabelValues(result).Inc()
		c.HTML(statusFor(err), "login", ac.page(c, "Log in", app.H{
			"Goto": dest, "RegisterError": err.Error(), "Name": in.Name,
		}))
		return
	}
	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()

	if err := ac.issueSession(c.Request.Context(), c.Writer, acc.UID); err != nil {
		ac.Log.Error().Err(err).Int64("uid", acc.UID).Msg("issue session")
		c.Redirect(http.StatusSeeOther, "/login?goto="+url.QueryEscape(dest))
		return
	}
	c.Redirect(http.StatusSeeOther, dest)
}

// POST /logout
func (ac *AuthController) Logout(c *gin.Context) {
	if token, err := c.Cookie(session.CookieName); err == nil {
		if err := ac.Resolver.Revoke(c.Request.Context(), token); err != nil {
			ac.Log.Warn().Err(err).Msg("revoke session")
		}
	}
	ac.clearAppCookie(c.Writer)
	c.Redirect(http.StatusSeeOther, "/login")
}
