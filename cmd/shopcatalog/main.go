package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shopcatalog/internal/cache"
	"shopcatalog/internal/config"
	"shopcatalog/internal/http/handlers"
	applog "shopcatalog/internal/log"
	"shopcatalog/internal/repos"
)

func main() {
	cfg := config.Load()

	logger, err := applog.New(cfg.LogLevel, cfg.LogEncoding, cfg.LogFile)
	if err != nil {
		log.Fatalf("[log] %v", err)
	}
	defer logger.Sync()
	applog.SetLogger(logger)
	logger.Info("config.loaded", cfg.LogFields()...)

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("db.open", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := repos.SeedUsers(ctx, db); err != nil {
		logger.Fatal("seed.users", zap.Error(err))
	}
	if cfg.SeedDemo {
		if err := repos.SeedDemo(ctx, db); err != nil {
			logger.Fatal("seed.demo", zap.Error(err))
		}
	}

	// Product representations are cached in Redis when it is configured and
	// reachable; otherwise every read goes to the database.
	var pc cache.ProductCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.CacheTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			logger.Warn("cache.disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = rc.Close()
		} else {
			logger.Info("cache.enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
			pc = rc
			defer rc.Close()
		}
		cancel()
	}

	app := handlers.NewApp(handlers.NewDeps(db, cfg, pc), cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal("server.listen", zap.Error(err))
		}
	}()
	logger.Info("server.start", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server.shutdown", zap.Error(err))
	}
	logger.Info("server.stop")
}
