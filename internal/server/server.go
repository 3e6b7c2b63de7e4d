package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/farellandr/eventboard/config"
	"github.com/farellandr/eventboard/internal/handlers"
	"github.com/farellandr/eventboard/internal/helpers"
	"github.com/farellandr/eventboard/internal/logging"
	"github.com/farellandr/eventboard/internal/metrics"
	"github.com/farellandr/eventboard/internal/middleware"
	"github.com/farellandr/eventboard/internal/publisher"
	"github.com/farellandr/eventboard/internal/services"
	"github.com/farellandr/eventboard/internal/tokens"
)

type App struct {
	cfg       *config.Config
	db        *gorm.DB
	engine    *gin.Engine
	metrics   *metrics.Metrics
	publisher publisher.Publisher
	blacklist *services.BlacklistService
}

// New wires services and routes on top of an open database.
func New(cfg *config.Config, db *gorm.DB, pub publisher.Publisher) *App {
	if pub == nil {
		pub = publisher.Nop{}
	}
	helpers.RegisterValidators()

	m := metrics.New()
	tm := tokens.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)

	users := services.NewUserService(db)
	blacklist := services.NewBlacklistService(db)
	auth := services.NewAuthenticator(tm, blacklist, users, m)
	limiter := services.NewEventRateLimiter(db)
	events := services.NewEventService(db, limiter, pub, m)
	participation := services.NewParticipationService(db, pub, m)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(m),
		m.Middleware(),
	)

	setupRoutes(r, routeDeps{
		auth:          middleware.JWTAuthMiddleware(auth),
		authHandler:   handlers.NewAuthHandler(users, auth),
		events:        handlers.NewEventHandler(events, cfg.Events.DailyLimit),
		participants:  handlers.NewParticipantHandler(participation),
		profiles:      handlers.NewProfileHandler(users, participation),
		health:        handlers.NewHealthHandler(db),
		metricsHandle: gin.WrapH(m.Handler()),
	})

	return &App{
		cfg:       cfg,
		db:        db,
		engine:    r,
		metrics:   m,
		publisher: pub,
		blacklist: blacklist,
	}
}

// Handler returns the router wrapped with CORS.
func (a *App) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   a.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID},
		AllowCredentials: false,
	})
	return c.Handler(a.engine)
}

// scheduleCleanup registers the blacklist pruning job. It returns nil when
// no schedule is configured.
func (a *App) scheduleCleanup() (*cron.Cron, error) {
	schedule := a.cfg.Blacklist.PruneSchedule
	if schedule == "" {
		return nil, nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(schedule, func() {
		removed, err := a.blacklist.PruneExpired(context.Background(), time.Now())
		if err != nil {
			logging.Logger.WithError(err).Error("Scheduled blacklist cleanup failed")
			return
		}
		logging.Logger.WithField("removed", removed).Info("Pruned expired blacklisted tokens")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid BLACKLIST_PRUNE_SCHEDULE %q: %w", schedule, err)
	}
	return c, nil
}

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.InitLogger("eventboard", cfg.LogLevel)
	gin.SetMode(cfg.Server.GinMode)

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	var pub publisher.Publisher = publisher.Nop{}
	if cfg.KafkaEnabled() {
		pub = publisher.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logging.Logger.WithField("topic", cfg.Kafka.Topic).Info("Publishing activity to Kafka")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logging.Logger.WithError(err).Warn("Failed to close publisher")
		}
	}()

	app := New(cfg, db, pub)

	scheduler, err := app.scheduleCleanup()
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logging.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logging.Logger.Info("Server stopped.")
	return nil
}
