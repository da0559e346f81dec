package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mrwolf/moodcast/internal/api"
	"github.com/mrwolf/moodcast/internal/config"
	"github.com/mrwolf/moodcast/internal/db"
	"github.com/mrwolf/moodcast/internal/logstore"
	"github.com/mrwolf/moodcast/internal/report"
	"github.com/mrwolf/moodcast/internal/scheduler"
	"github.com/mrwolf/moodcast/internal/tracking"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting moodcast...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to load timezone %s: %v", cfg.Timezone, err)
	}

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	clock := clockwork.NewRealClock()
	client := logstore.NewClient(cfg.LogStoreURL)

	// Validate log store connection at startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := client.HealthCheck(ctx); err != nil {
		log.Printf("WARNING: log store health check failed: %v", err)
		log.Println("Server will start but predictions will fail until it is reachable")
	} else {
		log.Printf("Log store connected: %s", cfg.LogStoreURL)
	}
	cancel()

	tracker := tracking.NewService(database, client, cfg.TrackedUsers, loc, clock)
	reports := report.NewStore(cfg.ReportsPath)

	sched, err := scheduler.New(database, tracker, reports, client, scheduler.Config{
		Timezone:     cfg.Timezone,
		SnapshotCron: cfg.SnapshotCron,
		Clock:        clock,
	})
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	if len(cfg.TrackedUsers) == 0 {
		log.Println("No tracked users configured, weekly snapshots are idle")
	}

	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		DB:       database,
		LogStore: client,
		Tracker:  tracker,
		Reports:  reports,
		Runner:   sched,
		Clock:    clock,
	})

	// Start server
	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Stopping scheduler...")
	if err := sched.Stop(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}

	log.Println("Closing database...")
	if err := database.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
}
