package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/bassista/proto_cache/internal/api/middleware"
	route "github.com/bassista/proto_cache/internal/api/route"
	appctx "github.com/bassista/proto_cache/internal/app"
	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/config"
	"github.com/bassista/proto_cache/internal/fetch"
	"github.com/bassista/proto_cache/internal/logger"
	"github.com/bassista/proto_cache/internal/repository"

	"github.com/enrichman/httpgrace"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		logger.WithComponent("main").Debug("loaded environment from .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	logger.SetLevel(cfg.Misc.LogLevel)
	config.WatchLogLevel()
	logger.WithComponent("main").Infof("App will run on port: %d", cfg.Server.Port)
	logger.WithComponent("main").Infof("Upstream catalog: %s", cfg.Upstream.BaseURL)

	store, err := cache.NewStore(cfg.CacheConfig())
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init snapshot store: %v", err)
	}

	fetcher, err := fetch.NewClient(fetch.Options{
		BaseURL:           cfg.Upstream.BaseURL,
		RequestTimeout:    cfg.Upstream.RequestTimeout,
		MaxTries:          uint(cfg.Upstream.MaxTries),
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	})
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init upstream client: %v", err)
	}

	repo, err := repository.NewSnapshotRepository(store, fetcher, catalog.NewDefaultNormalizer())
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init repository: %v", err)
	}

	app, err := appctx.New(cfg, repo, store)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	app.StartBackground()

	// Warm the snapshot before serving; a failure is logged and left to the
	// refresh scheduler and explicit setup calls.
	warmCtx, cancelWarm := context.WithTimeout(app.BaseCtx, cfg.Upstream.RequestTimeout*time.Duration(cfg.Upstream.MaxTries))
	if result := repo.SetupSnapshot(warmCtx, catalog.FetchParams{}); !result.OK {
		logger.WithComponent("main").Warnf("initial snapshot setup failed: %v", result.Fault)
	} else {
		logger.WithComponent("main").Infof("initial snapshot ready: %d records", result.Stats.Size)
	}
	cancelWarm()

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins))

	route.SetupRoutes(r, app)
	srv := createGraceHttpServer(app.BaseCtx, "main-server", app.Config.Server, r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
