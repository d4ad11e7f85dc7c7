// Command coordinator is the cloud-side process: it serves the admission
// HTTP API, runs the durable task workers, and hosts the probe bridge, all
// in one binary the way the teacher splits cmd/api, cmd/transformer, and
// cmd/summarizer into three -- linkmind's pipeline is small enough, and
// tightly enough coupled to the bridge, to run as one.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/reorx/linkmind/internal/api"
	"github.com/reorx/linkmind/internal/config"
	"github.com/reorx/linkmind/internal/dbconn"
	"github.com/reorx/linkmind/internal/fetch"
	"github.com/reorx/linkmind/internal/llm"
	"github.com/reorx/linkmind/internal/pipeline"
	"github.com/reorx/linkmind/internal/probebridge"
	"github.com/reorx/linkmind/internal/store"
	"github.com/reorx/linkmind/internal/taskqueue"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := dbconn.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	rdb, err := dbconn.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	st, err := store.Open(db, os.Getenv("TEXT_INDEX_PATH"))
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	runtime := taskqueue.New(st, rdb)

	summarizer := llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	insightGen := llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	extractor := fetch.NewHTTPArticleExtractor(mustEnv("EXTRACTOR_BASE_URL"))
	ocr := fetch.NewHTTPImageOCR(mustEnv("OCR_BASE_URL"))

	pl := pipeline.New(st, runtime, summarizer, insightGen, summarizer, extractor, ocr)

	bridge := probebridge.New(st, pl)
	pl.SetProbePusher(bridge)

	runtime.RunWorkers(ctx, cfg.WorkerCount)
	go bridge.RunExpiryLoop(ctx, cfg.ProbeEventTTL)

	router := api.NewRouter(st, pl, bridge, cfg.WebBaseURL)

	slog.Info("coordinator starting", "addr", ":8080")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

func mustEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		log.Fatalf("%s is not set", name)
	}
	return v
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
