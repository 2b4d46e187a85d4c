package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/smartmark/smartmark/internal/config"
	"github.com/smartmark/smartmark/internal/infra/database"
	"github.com/smartmark/smartmark/internal/infra/repository"
	"github.com/smartmark/smartmark/internal/present/rest"
	"github.com/smartmark/smartmark/internal/present/rest/middleware"
	"github.com/smartmark/smartmark/internal/service"
	"github.com/smartmark/smartmark/internal/telemetry"
	"github.com/smartmark/smartmark/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		shutdown, err := telemetry.Setup(context.Background(), "smartmarkd", conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup telemetry", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(ctx)
		}()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	bookmarkRepo := repository.NewBookmarkRepository(db)
	userRepo := repository.NewUserRepository(db)

	signal := service.NewSignalService(rdb)
	users := usecase.NewUserUsecase(userRepo)
	bookmarks := usecase.NewBookmarkUsecase(bookmarkRepo, signal)
	auth := service.NewAuthService(conf.Server.FQDN, conf.Auth.SessionSecret, users, mc)

	err = rest.SetupOAuth(conf.Server.BaseURL, conf.Auth.SessionSecret, conf.Auth.Providers)
	if err != nil {
		slog.Error("failed to setup oauth", slog.String("error", err.Error()))
		os.Exit(1)
	}

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("smartmarkd"))
	}

	authMiddleware := middleware.NewAuthMiddleware(auth)
	e.Use(authMiddleware.IdentifyIdentity)

	handler := rest.NewHandler(bookmarks, users, auth, signal)
	handler.RegisterRoutes(e)

	slog.Info("starting server", slog.String("listen", conf.Server.Listen))
	e.Logger.Fatal(e.Start(conf.Server.Listen))
}
