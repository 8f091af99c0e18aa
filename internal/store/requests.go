package store

import (
	"context"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

func (s *Store) CreateRequest(ctx context.Context, r *models.ParticipationRequest) error {
	err := s.conn(ctx).Create(r).Error
	return duplicateOr(err, apperr.Conflict(
		"Request already exists for user id=%d and event id=%d", r.RequesterID, r.EventID))
}

func (s *Store) SaveRequest(ctx context.Context, r *models.ParticipationRequest) error {
	return dbError(s.conn(ctx).Save(r).Error)
}

// GetUserRequest loads a request only when userID made it.
func (s *Store) GetUserRequest(ctx context.Context, id, userID uint) (*models.ParticipationRequest, error) {
	var r models.ParticipationRequest
	err := s.conn(ctx).Where("id = ? AND requester_id = ?", id, userID).First(&r).Error
	if err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Request with id=%d was not found", id))
	}
	return &r, nil
}

func (s *Store) RequestExists(ctx context.Context, eventID, userID uint) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.ParticipationRequest{}).
		Where("event_id = ? AND requester_id = ?", eventID, userID).
		Count(&n).Error
	return n > 0, dbError(err)
}

// CountConfirmed counts confirmed requests of one event from persisted rows.
func (s *Store) CountConfirmed(ctx context.Context, eventID uint) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.ParticipationRequest{}).
		Where("event_id = ? AND status = ?", eventID, models.RequestConfirmed).
		Count(&n).Error
	return n, dbError(err)
}

// CountConfirmedByEvents counts confirmed requests for several events at once.
// Events without confirmed requests are absent from the result.
func (s *Store) CountConfirmedByEvents(ctx context.Context, eventIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		EventID uint
		Total   int64
	}
	err := s.conn(ctx).Model(&models.ParticipationRequest{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ? AND status = ?", eventIDs, models.RequestConfirmed).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(err)
	}
	for _, r := range rows {
		out[r.EventID] = r.Total
	}
	return out, nil
}

func (s *Store) ListUserRequests(ctx context.Context, userID uint) ([]models.ParticipationRequest, error) {
	var reqs []models.ParticipationRequest
	err := s.conn(ctx).Where("requester_id = ?", userID).Order("id asc").Find(&reqs).Error
	return reqs, dbError(err)
}

func (s *Store) ListEventRequests(ctx context.Context, eventID uint) ([]models.ParticipationRequest, error) {
	var reqs []models.ParticipationRequest
	err := s.conn(ctx).Where("event_id = ?", eventID).Order("id asc").Find(&reqs).Error
	return reqs, dbError(err)
}

func (s *Store) RequestsByIDs(ctx context.Context, ids []uint) ([]models.ParticipationRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var reqs []models.ParticipationRequest
	err := s.conn(ctx).Where("id IN ?", ids).Order("id asc").Find(&reqs).Error
	return reqs, dbError(err)
}

// SetRequestStatus moves every listed request to status in one statement.
func (s *Store) SetRequestStatus(ctx context.Context, ids []uint, status models.RequestStatus) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.conn(ctx).Model(&models.ParticipationRequest{}).
		Where("id IN ?", ids).
		Update("status", status).Error
	return dbError(err)
}
