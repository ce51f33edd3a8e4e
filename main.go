package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EmpoweredVote/EV-CityMap/internal/api"
	"github.com/EmpoweredVote/EV-CityMap/internal/app"
	"github.com/EmpoweredVote/EV-CityMap/internal/config"
	"github.com/EmpoweredVote/EV-CityMap/internal/db"
	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/EmpoweredVote/EV-CityMap/internal/metrics"
	"github.com/EmpoweredVote/EV-CityMap/internal/middleware"
	"github.com/EmpoweredVote/EV-CityMap/internal/projects"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.Load()
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		l.Fatal().Err(err).Msg("load config")
	}
	for _, w := range cfg.Warnings {
		l.Warn().Str("warning", w).Msg("config value ignored")
	}

	a, err := app.New(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("build app")
	}

	var store projects.Store
	if err := db.Connect(cfg.DatabaseURL); err != nil {
		if !errors.Is(err, db.ErrNoDSN) {
			l.Fatal().Err(err).Msg("connect database")
		}
		l.Warn().Msg("DATABASE_URL is empty, project storage disabled")
	} else {
		gs, err := projects.Init(db.DB)
		if err != nil {
			l.Fatal().Err(err).Msg("init projects")
		}
		store = gs
	}

	apiRouter := api.SetupRoutes(api.NewHandlers(a.APIOptions(), a.Pipeline, a.Translator))
	apiRouter.Group(projects.Routes(store))

	r := chi.NewRouter()
	r.Use(logger.AccessMiddleware(logger.L()))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS))
	r.Get("/", RootHandler)
	r.Handle("/metrics", metrics.Handler())
	r.Mount("/api", apiRouter)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("shutdown")
	}
	l.Info().Msg("server stopped")
}
