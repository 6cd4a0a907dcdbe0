package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"aimy/internal/analytics"
	"aimy/internal/config"
	"aimy/internal/db"
	"aimy/internal/host"
	"aimy/internal/logger"
	"aimy/internal/metrics"
	"aimy/internal/rooms"
	"aimy/internal/targets"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Run wires the service from cfg and serves until ctx ends.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("server")
	m := metrics.NewManager()
	g, ctx := errgroup.WithContext(ctx)

	srv := &Server{
		Settings: cfg.Settings,
		Metrics:  m,
		log:      log,
	}
	hostOpts := []host.Option{host.WithErrorRecorder(m)}
	var shots *host.ShotRecorder

	// Optional database connection
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn(ctx, "database unavailable, running without it", logger.Error(err))
		} else {
			defer database.Close()
			if err := database.Migrate(ctx); err != nil {
				log.Error(ctx, "migration failed", logger.Error(err))
			}
			srv.DB = database
			srv.Analytics = analytics.NewQueries(database)
			shots = host.NewShotRecorder(database, m)
			g.Go(func() error {
				shots.Run(ctx)
				return nil
			})
			hostOpts = append(hostOpts,
				host.WithStore(database, srv.Analytics),
				host.WithShotRecorder(shots))
			log.Info(ctx, "database connected and migrations applied")
		}
	} else {
		log.Info(ctx, "database_url not set, running without database")
	}

	if saver, err := host.NewSaver(cfg.Settings); err != nil {
		log.Warn(ctx, "stats files disabled", logger.Error(err))
	} else {
		hostOpts = append(hostOpts, host.WithSaver(saver))
		log.Info(ctx, "stats files", logger.String("dir", saver.Dir()), logger.String("format", cfg.Settings.StatsFormat))
	}

	srv.Host = host.New(hostOpts...)
	srv.Rooms = rooms.NewStore(ctx, rooms.Deps{
		Arena:    targets.Arena{Width: float64(cfg.ArenaWidth), Height: float64(cfg.ArenaHeight)},
		Host:     srv.Host,
		Observer: m,
		Shots:    shots,
		Count:    m.SetActiveRooms,
	})

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		log.Info(ctx, "listening", logger.String("addr", "http://localhost:"+cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		srv.Rooms.Close()
		srv.Host.Wait()
		log.Info(shutdownCtx, "server stopped")
		return err
	})
	return g.Wait()
}

func (s *Server) Routes() *http.ServeMux {
	if s.log == nil {
		s.log = logger.Named("server")
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rooms/create", s.handleCreateRoom)
	mux.HandleFunc("GET /room/{code}/state", s.handleState)
	mux.HandleFunc("POST /room/{code}/start", s.handleStart)
	mux.HandleFunc("POST /room/{code}/shot", s.handleShot)
	mux.HandleFunc("POST /room/{code}/activity", s.handleActivity)
	mux.HandleFunc("POST /room/{code}/complete", s.handleComplete)
	mux.HandleFunc("DELETE /room/{code}", s.handleDeleteRoom)
	mux.HandleFunc("GET /room/{code}/events", s.handleEvents)
	mux.HandleFunc("GET /room/{code}/ws", s.handleSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}
	mux.HandleFunc("GET /analytics/leaderboard", s.handleAnalyticsLeaderboard)
	mux.HandleFunc("GET /analytics/modes", s.handleAnalyticsModes)
	mux.HandleFunc("GET /analytics/player/{id}", s.handleAnalyticsPlayer)
	mux.HandleFunc("GET /analytics/session/{id}", s.handleAnalyticsSession)
	return mux
}
