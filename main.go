package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"explorewithme-backend/internal/config"
	"explorewithme-backend/internal/database"
	"explorewithme-backend/internal/events"
	"explorewithme-backend/internal/stats"
	"explorewithme-backend/internal/store"
	"explorewithme-backend/internal/views"
)

func main() {

	// Load .env and environment
	cfg, err := config.LoadMain()
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}
	gin.SetMode(cfg.GinMode)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.Stats.App)

	// Connect DB
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// Stats server and the shared view cache
	statsClient := stats.NewClient(cfg.Stats.URL, cfg.Stats.App, cfg.Stats.Timeout)
	var dedup events.ViewDedup
	if cfg.Redis.URL != "" {
		rdb := views.NewClient(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		dedup = views.NewDedup(rdb, cfg.Redis.ViewTTL)
		log.Printf("🔁 View dedup via Redis at %s", cfg.Redis.URL)
	}

	api := NewAPI(st, statsClient, cfg.Stats.App, dedup, logger)

	// Start Gin
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(logger), CORSMiddleware())
	SetupRoutes(r, api)

	log.Printf("🚀 Server running on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("❌ Server stopped: %v", err)
	}
}
