package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/logger"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"
)

const batchSize = 100

func main() {
	var timeoutMin int
	flag.IntVar(&timeoutMin, "timeout", 10, "Overall timeout in minutes")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting full search reindex")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	cfg.Elasticsearch.Enabled = true
	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMin)*time.Minute)
	defer cancel()

	shows := repository.NewShowRepository(db)

	start := time.Now()
	indexed := 0
	for page := 1; ; page++ {
		batch, total, err := shows.List(ctx, page, batchSize)
		if err != nil {
			logger.Fatal("Failed to list shows", "page", page, "error", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, show := range batch {
			if err := esClient.IndexShow(ctx, show); err != nil {
				logger.Fatal("Failed to index show", "show_id", show.ID, "error", err)
			}
			indexed++
		}

		slog.Info("Indexed batch", "page", page, "indexed", indexed, "total", total)
		if indexed >= total {
			break
		}
	}

	slog.Info("Reindex completed", "shows", indexed, "took", time.Since(start))
}
