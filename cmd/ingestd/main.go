package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/tagstream/config"
	"github.com/d60-Lab/tagstream/internal/api"
	"github.com/d60-Lab/tagstream/internal/api/handler"
	"github.com/d60-Lab/tagstream/internal/cache"
	"github.com/d60-Lab/tagstream/internal/hashtag"
	"github.com/d60-Lab/tagstream/internal/repository"
	"github.com/d60-Lab/tagstream/internal/service"
	"github.com/d60-Lab/tagstream/internal/source"
	"github.com/d60-Lab/tagstream/pkg/database"
	"github.com/d60-Lab/tagstream/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	cfg := must(config.Load())
	mustDo(logger.Init(cfg.Log.Level))
	defer logger.Sync()

	db := must(database.InitDB(cfg))
	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewHashtagRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 固定词表幂等登记
	extractor := hashtag.NewExtractor(cfg.Hashtags.Vocabulary)
	mustDo(tagRepo.Touch(ctx, extractor.Vocabulary()))

	var src source.Source
	if cfg.Poll.ExportPath != "" {
		src = source.Throttle(source.NewExportSource(cfg.Poll.ExportPath), cfg.Poll.RatePerSec, 1)
	}
	ingestSvc := service.NewIngestService(postRepo, extractor, src, cfg.Poll.PageSize)

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}
	postsCache := cache.NewPostCache(postRepo, rdb, cfg.Redis.TTL)

	h := handler.New(ingestSvc, tagRepo, postsCache, cfg.Server.BrowsePageSize)
	router := api.NewRouter(h)

	var stopPoller func(context.Context) error
	if src != nil {
		poller := service.NewPoller(ingestSvc, postRepo, cfg.Poll.Interval, cfg.Poll.Timeout)
		stopPoller = must(poller.Start(ctx))
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if stopPoller != nil {
		_ = stopPoller(shutdownCtx)
	}
	_ = srv.Shutdown(shutdownCtx)
}
