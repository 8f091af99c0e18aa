package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

// AdminEventFilter narrows the admin event search. Empty fields match all.
type AdminEventFilter struct {
	Users      []uint
	States     []models.EventState
	Categories []uint
	RangeStart *time.Time
	RangeEnd   *time.Time
}

// PublicEventFilter narrows the public event search. Only published events
// are ever returned.
type PublicEventFilter struct {
	Text          string
	Categories    []uint
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
}

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	return dbError(s.conn(ctx).Create(e).Error)
}

func (s *Store) SaveEvent(ctx context.Context, e *models.Event) error {
	return dbError(s.conn(ctx).Save(e).Error)
}

func (s *Store) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	var e models.Event
	if err := s.conn(ctx).First(&e, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Event with id=%d was not found", id))
	}
	return &e, nil
}

// LockEvent loads the event and holds a row lock on it until the
// surrounding transaction ends. Capacity checks must run under this lock.
func (s *Store) LockEvent(ctx context.Context, id uint) (*models.Event, error) {
	var e models.Event
	if err := s.forUpdate(s.conn(ctx)).First(&e, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Event with id=%d was not found", id))
	}
	return &e, nil
}

// GetUserEvent loads an event only when userID initiated it.
func (s *Store) GetUserEvent(ctx context.Context, id, userID uint) (*models.Event, error) {
	var e models.Event
	err := s.conn(ctx).Where("id = ? AND initiator_id = ?", id, userID).First(&e).Error
	if err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Event with id=%d was not found for user id=%d", id, userID))
	}
	return &e, nil
}

// LockUserEvent is GetUserEvent under a row lock.
func (s *Store) LockUserEvent(ctx context.Context, id, userID uint) (*models.Event, error) {
	var e models.Event
	err := s.forUpdate(s.conn(ctx)).Where("id = ? AND initiator_id = ?", id, userID).First(&e).Error
	if err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Event with id=%d was not found for user id=%d", id, userID))
	}
	return &e, nil
}

func (s *Store) EventExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Event{}).Where("id = ?", id).Count(&n).Error
	return n > 0, dbError(err)
}

func (s *Store) ListUserEvents(ctx context.Context, userID uint, page Page) ([]models.Event, error) {
	var events []models.Event
	q := s.conn(ctx).Where("initiator_id = ?", userID).Order("id asc")
	err := page.apply(q).Find(&events).Error
	return events, dbError(err)
}

func (s *Store) EventsByIDs(ctx context.Context, ids []uint) ([]models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var events []models.Event
	err := s.conn(ctx).Where("id IN ?", ids).Order("id asc").Find(&events).Error
	return events, dbError(err)
}

func (s *Store) FindAdminEvents(ctx context.Context, f AdminEventFilter, page Page) ([]models.Event, error) {
	q := s.conn(ctx).Model(&models.Event{})
	if len(f.Users) > 0 {
		q = q.Where("initiator_id IN ?", f.Users)
	}
	if len(f.States) > 0 {
		q = q.Where("state IN ?", f.States)
	}
	if len(f.Categories) > 0 {
		q = q.Where("category_id IN ?", f.Categories)
	}
	q = withRange(q, f.RangeStart, f.RangeEnd)

	var events []models.Event
	err := page.apply(q.Order("id asc")).Find(&events).Error
	return events, dbError(err)
}

// FindPublicEvents searches published events. When no date range is given
// only events after now are returned.
func (s *Store) FindPublicEvents(ctx context.Context, f PublicEventFilter, now time.Time, page Page) ([]models.Event, error) {
	q := s.conn(ctx).Model(&models.Event{}).Where("state = ?", models.EventPublished)

	if text := strings.TrimSpace(f.Text); text != "" {
		kw := "%" + strings.ToLower(text) + "%"
		q = q.Where("LOWER(annotation) LIKE ? OR LOWER(description) LIKE ?", kw, kw)
	}
	if len(f.Categories) > 0 {
		q = q.Where("category_id IN ?", f.Categories)
	}
	if f.Paid != nil {
		q = q.Where("paid = ?", *f.Paid)
	}
	if f.RangeStart == nil && f.RangeEnd == nil {
		q = q.Where("event_date > ?", now)
	} else {
		q = withRange(q, f.RangeStart, f.RangeEnd)
	}
	if f.OnlyAvailable {
		confirmed := s.conn(ctx).Model(&models.ParticipationRequest{}).
			Select("COUNT(*)").
			Where("participation_requests.event_id = events.id AND participation_requests.status = ?", models.RequestConfirmed)
		q = q.Where("participant_limit = 0 OR (?) < participant_limit", confirmed)
	}

	var events []models.Event
	err := page.apply(q.Order("id asc")).Find(&events).Error
	return events, dbError(err)
}

func withRange(q *gorm.DB, start, end *time.Time) *gorm.DB {
	if start != nil {
		q = q.Where("event_date >= ?", *start)
	}
	if end != nil {
		q = q.Where("event_date <= ?", *end)
	}
	return q
}
