package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "trimsdesk/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"trimsdesk/internal/auth"
	"trimsdesk/internal/cache"
	"trimsdesk/internal/config"
	"trimsdesk/internal/db"
	"trimsdesk/internal/handler"
	"trimsdesk/internal/logging"
	"trimsdesk/internal/metrics"
	"trimsdesk/internal/navigation"
	"trimsdesk/internal/records"
	"trimsdesk/internal/repository"
	"trimsdesk/internal/router"
	"trimsdesk/internal/service"
	"trimsdesk/internal/session"
	"trimsdesk/internal/tenancy"
	"trimsdesk/web"
)

const shutdownTimeout = 10 * time.Second

// @title Trims Desk API
// @version 1.0
// @description Trims booking, buyer library, embellishment, merchandising and personal planner API with per-user workspaces and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.OpenStore(cfg.StoreBackend, cfg.MySQLDSN, cfg.ResetDB, log.WithField("component", "db"))
	if err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, log.WithField("component", "cache"))
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable, sessions and tokens will not persist")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	// Repositories and sessions
	users := repository.NewUserRepository(store)
	persister := session.NewRedisPersister(cacheClient, cfg.SessionTTL)
	sessions := session.NewManager(users, persister, session.NewThrottle(cfg.LoginRatePerMin), m, log)
	defer sessions.Close()

	layer := records.NewLayer(store, tenancy.NewResolver(log), m, log)

	views, err := navigation.NewViewLoader(viewFS(cfg.ViewDir, log), cfg.ViewCacheSize, m)
	if err != nil {
		return err
	}
	nav := navigation.NewRegistry(views, layer, m, log)
	defer nav.Close()

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Services
	authService := service.NewAuthService(sessions, jwtService, tokenStore, log, nav)
	adminService := service.NewAdminService(users, log, []service.Revoker{sessions, tokenStore}, sessions, nav)

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Nav:      handler.NewNavHandler(nav),
		Bookings: handler.NewBookingHandler(service.NewBookingService(layer)),
		Buyers:   handler.NewBuyerHandler(service.NewBuyerService(layer)),
		Notes:    handler.NewNoteHandler(service.NewNoteService(layer)),
		Emb:      handler.NewEmbHandler(service.NewEmbService(layer)),
		Merch:    handler.NewMerchHandler(service.NewMerchService(layer)),
		Personal: handler.NewPersonalHandler(service.NewTaskService(layer), service.NewDiaryService(layer)),
		System: handler.NewSystemHandler(
			service.NewProfileService(store, users, layer, log),
			service.NewSettingsService(store, cacheClient, log),
			service.NewNoticeService(store, layer),
		),
		Admin: handler.NewAdminHandler(adminService),
	}
	guard := handler.NewGuard(jwtService, tokenStore, sessions, m, log)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, handlers, guard, m, registry, log)

	log.Infof("Swagger documentation available at: %s", swaggerURL(cfg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.ServerPort
		log.WithField("addr", addr).Info("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// viewFS serves views from dir when it holds a pages directory, and from the
// embedded copy otherwise.
func viewFS(dir string, log logrus.FieldLogger) fs.FS {
	if dir != "" {
		if info, err := os.Stat(dir + "/pages"); err == nil && info.IsDir() {
			log.WithField("dir", dir).Info("serving views from disk")
			return os.DirFS(dir)
		}
	}
	return web.Views
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
