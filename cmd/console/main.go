package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pv/camfleet-go/internal/actions"
	"github.com/pv/camfleet-go/internal/api"
	"github.com/pv/camfleet-go/internal/config"
	"github.com/pv/camfleet-go/internal/coordinator"
	"github.com/pv/camfleet-go/internal/fleet"
	"github.com/pv/camfleet-go/internal/journal"
	"github.com/pv/camfleet-go/internal/logger"
)

func main() {
	cfg := config.Parse()
	logger.Init(cfg.LogFormat, logger.ParseLevel(cfg.LogLevel))

	// Create journal
	var backend journal.Backend
	switch cfg.Journal {
	case config.JournalSQLite:
		backend = journal.NewSQLiteBackend(cfg.SQLitePath)
		log.Printf("Using SQLite journal: %s", cfg.SQLitePath)
	default:
		backend = journal.NewMemoryBackend()
		log.Println("Using in-memory journal")
	}

	jrnl := journal.NewManager(backend, cfg.MaxJournalRecords)
	if err := jrnl.Start(); err != nil {
		log.Fatalf("Failed to start journal: %v", err)
	}
	defer jrnl.Stop()

	// Create coordinator with a loopback executor until a real
	// transport is wired in
	lb := &loopback{}
	coord := coordinator.New(lb, lb, jrnl)
	coord.SetStrictImages(cfg.StrictImages)
	lb.coord = coord

	// Wire SSE notifications
	hub := api.NewSSEHub()
	api.Bind(coord, hub)

	// Seed the fleet from YAML, if configured
	if cfg.ServersFile != "" {
		servers, err := config.LoadServersFromYAML(cfg.ServersFile)
		if err != nil {
			log.Fatalf("Failed to load servers file: %v", err)
		}
		for _, srv := range servers {
			if err := coord.Add(fleet.ServerEntry{Address: srv.Address, Label: srv.Label}); err != nil {
				log.Printf("Skipping server %s: %v", srv.Address, err)
			}
		}
		log.Printf("Seeded %d servers from %s", len(servers), cfg.ServersFile)
	}

	// Create API handlers and server
	handlers := api.NewHandlers(coord, jrnl, cfg.Network)
	server := api.NewServer(handlers, hub)

	// Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		log.Printf("Starting console on http://localhost%s", addr)
		log.Printf("Camera network: %s", cfg.Network)
		log.Printf("Response timeout: %s", cfg.Timeout)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down console...")

	if err := httpServer.Shutdown(context.Background()); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Console stopped")
}

// loopback completes every dispatch locally. It stands in for the real
// camera-server transport and lets the console run end to end without
// hardware: batch actions succeed, refresh marks servers online, and a
// capture yields one image record per server.
type loopback struct {
	coord *coordinator.Coordinator
}

func (l *loopback) Execute(action actions.Action, addresses []string) {
	go func() {
		switch action {
		case actions.Refresh:
			for _, a := range addresses {
				l.coord.UpdateStatus(a, fleet.StatusOnline)
			}
		case actions.Capture:
			now := time.Now().UTC()
			for _, a := range addresses {
				if err := l.coord.AddImage(fleet.ImageRecord{Server: a, Timestamp: now}); err != nil {
					logger.Warn("image rejected", "server", a, "error", err)
				}
			}
		}
		l.coord.Complete(action, addresses, nil)
	}()
}

func (l *loopback) Export(imageIDs []string) {
	logger.Info("export requested", "images", len(imageIDs))
}

func (l *loopback) Clear(addresses []string) {
	logger.Info("clear requested", "servers", len(addresses))
}
