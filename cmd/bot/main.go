package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"CCLSentinel/internal/app"
	"CCLSentinel/internal/bot"
	"CCLSentinel/internal/config"
	"CCLSentinel/internal/metrics"
	"CCLSentinel/internal/notifier"
	"CCLSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CCLSentinel starting...")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	store, err := app.NewStore(cfg)
	if err != nil {
		log.Fatalf("[FATAL] init session store: %v", err)
	}
	fetcher := app.NewFetcher(cfg)
	builder := app.NewPanel(cfg, fetcher)

	rec := app.NewRecorder(cfg)
	defer rec.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.APIURL, cfg.Proxy)
	handler := bot.NewHandler(store, builder, tn, rec)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.NewScheduler(fetcher, rec, cfg.HistoryRetention())
	if err := sched.RegisterAll(cfg.Schedule.CachePurgeCron, cfg.Schedule.HistoryPruneCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.ListenAddr); err != nil {
				log.Printf("[ERROR] metrics server: %v", err)
			}
		}()
	}

	log.Println("[INFO] CCLSentinel is running. Press Ctrl+C to stop.")
	tn.StartPolling(ctx, handler.Handle)
	log.Println("[INFO] CCLSentinel stopped")
}
