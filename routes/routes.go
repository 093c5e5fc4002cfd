package routes

import (
	"lsys/app"
	"lsys/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// controllers and dependencies
	s := controllers.GetSrv(a)
	auth := controllers.NewAuthController(s)
	books := controllers.NewBookController(s)

	// shared middleware
	res := a.Resolver()
	identifyMW := app.IdentifyAccount(res, a.Log)
	authMW := app.AuthRequired(res, a.Log)

	// ------------------------------
	// Public
	// ------------------------------
	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/files", a.Config.StaticDir)

	pub := r.Group("", identifyMW)
	{
		pub.GET("/login", auth.ShowLogin)
		pub.GET("/register", auth.ShowLogin)
		pub.POST("/login", auth.Login)
		pub.POST("/register", auth.Register)
		pub.POST("/logout", auth.Logout)
	}
	r.NoRoute(identifyMW, s.Missing)

	// ------------------------------
	// Catalogue (signed in)
	// ------------------------------
	lib := r.Group("", authMW)
	{
		lib.GET("/", books.List)
		lib.GET("/book", books.Show)
		lib.GET("/reserve", books.ShowReserve)
		lib.POST("/reserve", books.Reserve)
	}
}
