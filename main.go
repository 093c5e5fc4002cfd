package main

import (
	"context"
	"os"

	"lsys/app"
	"lsys/config"
	"lsys/logger"
	"lsys/routes"

	"github.com/rs/zerolog"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	application := app.MustNew(ctx, cfg, log)
	defer application.Close()

	r := application.Router
	routes.RegisterRoutes(r, application)

	log.Info().Str("port", cfg.Port).Int("books", application.Books.Len()).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
