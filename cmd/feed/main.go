// Binary feed runs the live market data ingestion engine: websocket feed in,
// bounded history + latency accounting inside, optional Kafka and JSONL
// fan-out.
package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Hichemchir/execution-engine/internal/config"
	"github.com/Hichemchir/execution-engine/internal/feed"
	"github.com/Hichemchir/execution-engine/internal/metrics"
	"github.com/Hichemchir/execution-engine/internal/publish"
	"github.com/Hichemchir/execution-engine/internal/recorder"
	"github.com/Hichemchir/execution-engine/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()

	_ = godotenv.Load() // .env is optional; FINNHUB_API_KEY may come from the environment

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := util.NewLogger("info", false)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel, false)

	if cfg.App.MetricsAddr != "" {
		srv := metrics.Serve(cfg.App.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	handler := feed.NewHandler(feed.Config{
		APIKey:            cfg.Feed.APIKey,
		URL:               cfg.Feed.URL,
		Symbols:           cfg.Feed.Symbols,
		EnableLogging:     cfg.Feed.EnableLogging,
		HistoryCapacity:   cfg.Feed.HistoryCapacity,
		LatencyWindow:     cfg.Feed.LatencyWindow,
		HeartbeatInterval: time.Duration(cfg.Feed.HeartbeatIntervalMS) * time.Millisecond,
	}, log)

	if cfg.Kafka.Enabled {
		publisher := publish.NewTickPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer publisher.Close()
		handler.OnTick(publisher.Callback())
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka fan-out enabled")
	}

	if cfg.Recorder.Enabled {
		rec, err := recorder.NewJSONLRecorder(cfg.Recorder.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("open recorder")
		}
		defer rec.Close()
		handler.OnTick(rec.Record)
		log.Info().Str("path", cfg.Recorder.Path).Msg("tick recording enabled")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	handler.Start()
	defer handler.Stop()

	<-ctx.Done()
	log.Info().Msg("shutting down")
}
