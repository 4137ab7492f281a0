package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/project-tktt/salary-pulse/internal/channel"
	"github.com/project-tktt/salary-pulse/internal/channel/preview"
	"github.com/project-tktt/salary-pulse/internal/channel/telegram"
	"github.com/project-tktt/salary-pulse/internal/config"
	"github.com/project-tktt/salary-pulse/internal/domain"
	"github.com/project-tktt/salary-pulse/internal/export"
	"github.com/project-tktt/salary-pulse/internal/indexer"
	"github.com/project-tktt/salary-pulse/internal/pipeline"
	"github.com/project-tktt/salary-pulse/internal/rates"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting salary report ingestion")

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis only backs the same-day rate cache; running without it just
	// means one extra HTTP lookup per currency per run.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unavailable, rate cache disabled: %v", err)
			rdb = nil
		} else {
			log.Println("Redis connected")
		}
	}

	resolver := rates.NewResolver(cfg.Rates.BaseURL, rdb, cfg.Rates.CachePrefix)

	var sinks []indexer.Indexer
	if cfg.Postgres.ConnectionString != "" {
		pg, err := indexer.NewPostgresIndexer(cfg.Postgres.ConnectionString, cfg.Postgres.TableName)
		if err != nil {
			log.Fatalf("PostgreSQL connection failed: %v", err)
		}
		defer pg.Close()
		log.Println("PostgreSQL connected")
		sinks = append(sinks, pg)
	}
	if cfg.Elasticsearch.Address != "" {
		es, err := indexer.NewElasticsearchIndexer([]string{cfg.Elasticsearch.Address}, cfg.Elasticsearch.Index)
		if err != nil {
			log.Fatalf("Elasticsearch connection failed: %v", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			log.Printf("Warning: ensure index failed: %v", err)
		}
		log.Println("Elasticsearch connected")
		sinks = append(sinks, es)
	}

	run := func(ctx context.Context) error {
		return runScan(ctx, cfg, resolver, sinks)
	}

	if cfg.Output.Schedule == "" {
		if err := run(ctx); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		log.Printf("Dataset written to %s", cfg.Output.Path)
		return
	}

	// Scheduled mode: a full re-scan per tick, plus one on startup.
	if err := run(ctx); err != nil {
		log.Printf("Initial scan failed: %v", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Output.Schedule, func() {
		if err := run(ctx); err != nil {
			log.Printf("Scheduled scan failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid schedule %q: %v", cfg.Output.Schedule, err)
	}
	c.Start()
	log.Printf("Scheduled re-scan: %s", cfg.Output.Schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received, stopping...")

	<-c.Stop().Done()
	cancel()
}

// runScan performs one full pass: read the channel history, extract a report
// per message, write the dataset and feed the optional sinks.
func runScan(ctx context.Context, cfg *config.Config, resolver *rates.Resolver, sinks []indexer.Indexer) error {
	// Rates are fetched once per run and reused for every message.
	table := resolver.Snapshot(ctx, "EUR", "USD")

	switch cfg.Channel.Source {
	case "preview":
		source := preview.NewScraper(preview.Config{
			BaseURL:   cfg.Channel.PreviewBaseURL,
			UserAgent: cfg.Channel.UserAgent,
		})
		return scanWith(ctx, source, table, cfg, sinks)

	case "mtproto":
		client, err := telegram.NewClient(telegram.Config{
			APIID:       cfg.Telegram.APIID,
			APIHash:     cfg.Telegram.APIHash,
			SessionFile: cfg.Telegram.SessionFile,
		})
		if err != nil {
			return fmt.Errorf("create telegram client: %w", err)
		}
		return client.Run(ctx, func(ctx context.Context) error {
			return scanWith(ctx, client, table, cfg, sinks)
		})

	default:
		return fmt.Errorf("unknown channel source %q", cfg.Channel.Source)
	}
}

func scanWith(ctx context.Context, source channel.Source, table rates.Table, cfg *config.Config, sinks []indexer.Indexer) error {
	p := pipeline.New(source, table, cfg.Channel.Name)
	reports, err := p.Run(ctx)
	if err != nil {
		return err
	}

	// The dataset file is the contractual output; failure here fails the run.
	if err := export.WriteFile(cfg.Output.Path, reports); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	indexAll(ctx, sinks, reports)
	return nil
}

func indexAll(ctx context.Context, sinks []indexer.Indexer, reports []domain.Report) {
	for _, sink := range sinks {
		if err := sink.BulkIndex(ctx, reports); err != nil {
			log.Printf("Index error: %v", err)
		}
	}
}
