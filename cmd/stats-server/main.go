package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"explorewithme-backend/internal/config"
	"explorewithme-backend/internal/database"
	"explorewithme-backend/internal/hits"
)

func main() {
	cfg, err := config.LoadStatsServer()
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}
	gin.SetMode(cfg.GinMode)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "stats-server")

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}
	st := hits.NewStore(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	r := gin.Default()
	hits.NewHandler(st, logger).Register(r)

	log.Printf("🚀 Stats server running on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("❌ Server stopped: %v", err)
	}
}
