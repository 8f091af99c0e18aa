package store

import (
	"context"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

// CreateCompilation inserts the compilation and links the existing events
// among eventIDs; unknown ids are ignored.
func (s *Store) CreateCompilation(ctx context.Context, c *models.Compilation, eventIDs []uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.db.Create(c).Error; err != nil {
			return dbError(err)
		}
		return tx.linkEvents(c.ID, eventIDs)
	})
}

// SaveCompilation updates the compilation. A non-nil eventIDs replaces the
// linked events.
func (s *Store) SaveCompilation(ctx context.Context, c *models.Compilation, eventIDs *[]uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.db.Save(c).Error; err != nil {
			return dbError(err)
		}
		if eventIDs == nil {
			return nil
		}
		if err := tx.db.Where("compilation_id = ?", c.ID).Delete(&models.CompilationEvent{}).Error; err != nil {
			return dbError(err)
		}
		return tx.linkEvents(c.ID, *eventIDs)
	})
}

func (s *Store) linkEvents(compilationID uint, eventIDs []uint) error {
	if len(eventIDs) == 0 {
		return nil
	}
	var existing []uint
	if err := s.db.Model(&models.Event{}).Where("id IN ?", eventIDs).Pluck("id", &existing).Error; err != nil {
		return dbError(err)
	}
	if len(existing) == 0 {
		return nil
	}
	links := make([]models.CompilationEvent, 0, len(existing))
	for _, id := range existing {
		links = append(links, models.CompilationEvent{CompilationID: compilationID, EventID: id})
	}
	return dbError(s.db.Create(&links).Error)
}

func (s *Store) GetCompilation(ctx context.Context, id uint) (*models.Compilation, error) {
	var c models.Compilation
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Compilation with id=%d was not found", id))
	}
	return &c, nil
}

func (s *Store) DeleteCompilation(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.db.Where("compilation_id = ?", id).Delete(&models.CompilationEvent{}).Error; err != nil {
			return dbError(err)
		}
		res := tx.db.Delete(&models.Compilation{}, id)
		if res.Error != nil {
			return dbError(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Compilation with id=%d was not found", id)
		}
		return nil
	})
}

func (s *Store) ListCompilations(ctx context.Context, pinned *bool, page Page) ([]models.Compilation, error) {
	q := s.conn(ctx).Model(&models.Compilation{})
	if pinned != nil {
		q = q.Where("pinned = ?", *pinned)
	}
	var comps []models.Compilation
	err := page.apply(q.Order("id asc")).Find(&comps).Error
	return comps, dbError(err)
}

// CompilationEventIDs returns the linked event ids per compilation.
func (s *Store) CompilationEventIDs(ctx context.Context, compilationIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(compilationIDs))
	if len(compilationIDs) == 0 {
		return out, nil
	}
	var links []models.CompilationEvent
	err := s.conn(ctx).Where("compilation_id IN ?", compilationIDs).
		Order("compilation_id asc, event_id asc").
		Find(&links).Error
	if err != nil {
		return nil, dbError(err)
	}
	for _, l := range links {
		out[l.CompilationID] = append(out[l.CompilationID], l.EventID)
	}
	return out, nil
}
