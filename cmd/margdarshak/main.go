package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/ajkumarray/margdarshak/internal/api/http"
	"github.com/ajkumarray/margdarshak/internal/config"
	"github.com/ajkumarray/margdarshak/internal/database/postgres"
	"github.com/ajkumarray/margdarshak/internal/database/rediscache"
	"github.com/ajkumarray/margdarshak/internal/service"
	"github.com/ajkumarray/margdarshak/internal/shortcode"
	"github.com/ajkumarray/margdarshak/internal/validation"
	pkgpostgres "github.com/ajkumarray/margdarshak/pkg/postgres"
)

const migrationsPath = "file://migrations"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	logger := getLogger(cfg.Env)

	g, ctx := errgroup.WithContext(ctx)

	if err := pkgpostgres.RunMigrations(migrationsPath, cfg.Postgres.DSN()); err != nil {
		return err
	}

	db, err := pkgpostgres.New(ctx, cfg.Postgres.DSN(),
		pkgpostgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pkgpostgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pkgpostgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pkgpostgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	var urlRepo service.URLRepository = postgres.NewURLRepository(db)

	if cfg.Redis.URL != "" {
		cache, err := rediscache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			return cache.Close()
		})

		urlRepo = rediscache.NewURLRepository(urlRepo, cache, cfg.Redis.TTL)
	}

	gen, err := shortcode.New(cfg.Shortener.Alphabet, cfg.Shortener.CodeLength, cfg.Shortener.CodePrefix)
	if err != nil {
		return err
	}

	urlValidator := validation.New(validation.Limits{
		MaxURLLength:      cfg.Shortener.MaxURLLength,
		MinExpirationDays: cfg.Shortener.MinExpirationDays,
		MaxExpirationDays: cfg.Shortener.MaxExpirationDays,
	})

	urlSvc := service.NewURLService(urlRepo, gen, urlValidator, cfg.BaseURL)

	r := myhttp.NewRouter(logger, urlSvc, cfg.JWT.Secret)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr))

		var err error
		if cfg.HTTPServer.CertFile != "" && cfg.HTTPServer.KeyFile != "" {
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}

func getLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	}

	switch env {
	case config.EnvStage:
		opts = httplog.Options{
			LogLevel: slog.LevelDebug,
			JSON:     true,
		}
	case config.EnvProd:
		opts = httplog.Options{
			LogLevel: slog.LevelInfo,
			JSON:     true,
		}
	}

	return httplog.NewLogger("margdarshak", opts)
}
