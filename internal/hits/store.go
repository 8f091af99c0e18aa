// Package hits is the statistics service: it persists endpoint hits and
// aggregates them into per-uri counts.
package hits

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// EndpointHit is one recorded request.
type EndpointHit struct {
	ID        uint      `gorm:"primaryKey"`
	App       string    `gorm:"size:255;not null;index:idx_hit_app_uri"`
	URI       string    `gorm:"size:512;not null;index:idx_hit_app_uri"`
	IP        string    `gorm:"size:64;not null"`
	Timestamp time.Time `gorm:"not null;index"`
}

// ViewStats is the hit count of one (app, uri) pair.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&EndpointHit{})
}

func (s *Store) Save(ctx context.Context, h *EndpointHit) error {
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("save hit: %w", err)
	}
	return nil
}

// Stats counts hits with start <= timestamp <= end grouped by app and uri,
// most hit first. Unique counts distinct ips. An empty uris matches all.
func (s *Store) Stats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]ViewStats, error) {
	count := "COUNT(ip)"
	if unique {
		count = "COUNT(DISTINCT ip)"
	}
	q := s.db.WithContext(ctx).Model(&EndpointHit{}).
		Select("app, uri, "+count+" AS hits").
		Where("timestamp BETWEEN ? AND ?", start, end)
	if len(uris) > 0 {
		q = q.Where("uri IN ?", uris)
	}

	var out []ViewStats
	err := q.Group("app, uri").Order("hits DESC, uri ASC").Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate hits: %w", err)
	}
	if out == nil {
		out = []ViewStats{}
	}
	return out, nil
}
