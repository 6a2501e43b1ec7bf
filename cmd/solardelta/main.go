package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solardelta/internal/api"
	"solardelta/internal/config"
	"solardelta/internal/entry"
	"solardelta/internal/hass"
	"solardelta/internal/persist"
	"solardelta/internal/scheduler"
	"solardelta/internal/ws"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] invalid config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("[FATAL] open store: %v", err)
	}
	defer store.Close()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("[FATAL] timezone: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := hass.NewClient(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token)

	hub := ws.NewHub()
	bridge := ws.NewBridge(hub)

	entries := make([]*entry.Entry, 0, len(cfg.Entries))
	tickers := make([]scheduler.Ticker, 0, len(cfg.Entries))
	for _, ec := range cfg.Entries {
		e, err := entry.New(ec, loc, client, store, bridge)
		if err != nil {
			log.Fatalf("[FATAL] entry %q: %v", ec.Name, err)
		}
		entries = append(entries, e)
		tickers = append(tickers, e)
	}
	reg := entry.NewRegistry(entries)

	// Subscriptions are in place, connect to Home Assistant
	go client.Run(ctx)
	for _, e := range entries {
		go e.Run(ctx)
	}

	sched := scheduler.NewScheduler(tickers, loc)
	if err := sched.RegisterAll(); err != nil {
		log.Fatalf("[FATAL] scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	mux := http.NewServeMux()
	api.New(reg).Register(mux)
	mux.Handle("/ws", ws.NewHandler(hub, reg))

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[INFO] received %s, shutting down", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
}

// defaultConfigPath resolves the config file location, overridable via
// SOLARDELTA_CONFIG.
func defaultConfigPath() string {
	if p := os.Getenv("SOLARDELTA_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// openStore opens the SQLite store, or a volatile in-memory store when the
// path is the ":memory:" sentinel.
func openStore(cfg *config.Config) (persist.Store, error) {
	if cfg.Database.SQLitePath == ":memory:" {
		log.Println("[WARN] in-memory store configured, averages will not survive restarts")
		return persist.NewMemoryStore(), nil
	}
	return persist.NewSQLiteStore(cfg.Database.SQLitePath)
}
