// importctl 批量导入频道历史导出 JSON（无实体元数据，走固定词表模式）
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/d60-Lab/tagstream/config"
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

func main() {
	file := flag.String("file", "result.json", "channel export json file")
	pageSize := flag.Int("page", 200, "messages per batch")
	flag.Parse()

	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db := must(database.InitDB(cfg))
	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewHashtagRepository(db)

	ctx := context.Background()
	extractor := hashtag.NewExtractor(cfg.Hashtags.Vocabulary)
	if err := tagRepo.Touch(ctx, extractor.Vocabulary()); err != nil {
		fmt.Fprintf(os.Stderr, "init hashtags: %v\n", err)
		os.Exit(1)
	}

	src := source.NewExportSource(*file)
	svc := service.NewIngestService(postRepo, extractor, src, *pageSize)

	watermark := must(postRepo.LastSourceMessageID(ctx))
	fmt.Printf("importing from %s (watermark %d)\n", *file, watermark)

	var created, duplicates, rejected, failed int
	for {
		msgs, err := src.FetchSince(ctx, watermark, *pageSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
			os.Exit(1)
		}
		if len(msgs) == 0 {
			break
		}
		res := svc.IngestBatch(ctx, msgs, watermark)
		created += res.Created
		duplicates += res.Duplicates
		rejected += res.Rejected
		failed += len(res.Errors)
		for _, be := range res.Errors {
			fmt.Fprintf(os.Stderr, "message %d: %v\n", be.MessageID, be.Err)
		}
		if res.Watermark == watermark {
			// 水位未动，说明批首即失败，终止避免空转
			break
		}
		watermark = res.Watermark
	}

	fmt.Printf("done: %d created, %d duplicates, %d rejected, %d failed\n",
		created, duplicates, rejected, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
