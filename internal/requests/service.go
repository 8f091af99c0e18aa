// Package requests admits users to events and lets organizers confirm or
// reject pending requests without overbooking.
package requests

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/store"
)

type Service struct {
	store *store.Store
	now   func() time.Time
	log   *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StatusUpdate is an organizer decision applied to a batch of requests.
type StatusUpdate struct {
	RequestIDs []uint
	Status     models.RequestStatus
}

// Create files a participation request. The event row stays locked while
// capacity is checked and the request is written.
func (s *Service) Create(ctx context.Context, userID, eventID uint) (dto.Request, error) {
	var req models.ParticipationRequest
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		exists, err := tx.RequestExists(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("Request already exists for user id=%d and event id=%d", userID, eventID)
		}
		if ev.InitiatorID == userID {
			return apperr.Conflict("Initiator cannot add request to own event")
		}
		if ev.State != models.EventPublished {
			return apperr.Conflict("Cannot participate in unpublished event")
		}
		if !ev.Unlimited() {
			confirmed, err := tx.CountConfirmed(ctx, eventID)
			if err != nil {
				return err
			}
			if confirmed >= int64(ev.ParticipantLimit) {
				return apperr.Conflict("The participant limit has been reached")
			}
		}

		req = models.ParticipationRequest{
			EventID:     eventID,
			RequesterID: userID,
			Created:     s.now().UTC(),
			Status:      models.RequestPending,
		}
		if !ev.RequestModeration || ev.Unlimited() {
			req.Status = models.RequestConfirmed
		}
		return tx.CreateRequest(ctx, &req)
	})
	if err != nil {
		return dto.Request{}, err
	}

	s.log.Info("request created", "request_id", req.ID, "event_id", eventID, "user_id", userID, "status", req.Status)
	return dto.NewRequest(req), nil
}

// Cancel withdraws the caller's own request whatever its status.
func (s *Service) Cancel(ctx context.Context, userID, requestID uint) (dto.Request, error) {
	var req *models.ParticipationRequest
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		if req, err = tx.GetUserRequest(ctx, requestID, userID); err != nil {
			return err
		}
		req.Status = models.RequestCanceled
		return tx.SaveRequest(ctx, req)
	})
	if err != nil {
		return dto.Request{}, err
	}

	s.log.Info("request canceled", "request_id", requestID, "user_id", userID)
	return dto.NewRequest(*req), nil
}

// UpdateStatus confirms or rejects a batch of pending requests of one event.
// Every check runs before anything is written; one failing request aborts
// the whole batch.
func (s *Service) UpdateStatus(ctx context.Context, userID, eventID uint, upd StatusUpdate) (dto.RequestStatusUpdateResult, error) {
	result := dto.RequestStatusUpdateResult{
		ConfirmedRequests: []dto.Request{},
		RejectedRequests:  []dto.Request{},
	}
	if upd.Status != models.RequestConfirmed && upd.Status != models.RequestRejected {
		return result, apperr.Validation("Status must be CONFIRMED or REJECTED, got %s", upd.Status)
	}
	ids := slices.Clone(upd.RequestIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var batch []models.ParticipationRequest
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		ev, err := tx.LockUserEvent(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if batch, err = tx.RequestsByIDs(ctx, ids); err != nil {
			return err
		}
		if len(batch) != len(ids) {
			return apperr.NotFound("Request with id=%d was not found", missing(ids, batch))
		}
		for _, r := range batch {
			if r.Status != models.RequestPending {
				return apperr.Conflict("Request must have status PENDING, request id=%d has %s", r.ID, r.Status)
			}
			if r.EventID != eventID {
				return apperr.Conflict("Request id=%d does not belong to event id=%d", r.ID, eventID)
			}
		}
		if upd.Status == models.RequestConfirmed && !ev.Unlimited() {
			confirmed, err := tx.CountConfirmed(ctx, eventID)
			if err != nil {
				return err
			}
			if confirmed >= int64(ev.ParticipantLimit) {
				return apperr.Conflict("The participant limit has been reached")
			}
			if confirmed+int64(len(batch)) > int64(ev.ParticipantLimit) {
				return apperr.Conflict("The participant limit would be exceeded")
			}
		}
		return tx.SetRequestStatus(ctx, ids, upd.Status)
	})
	if err != nil {
		return result, err
	}

	for i := range batch {
		batch[i].Status = upd.Status
	}
	if upd.Status == models.RequestConfirmed {
		result.ConfirmedRequests = dto.NewRequests(batch)
	} else {
		result.RejectedRequests = dto.NewRequests(batch)
	}
	s.log.Info("request statuses updated", "event_id", eventID, "count", len(batch), "status", upd.Status)
	return result, nil
}

func missing(ids []uint, found []models.ParticipationRequest) uint {
	for _, id := range ids {
		if !slices.ContainsFunc(found, func(r models.ParticipationRequest) bool { return r.ID == id }) {
			return id
		}
	}
	return 0
}

// ListUserRequests returns every request the user filed.
func (s *Service) ListUserRequests(ctx context.Context, userID uint) ([]dto.Request, error) {
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("User with id=%d was not found", userID)
	}
	reqs, err := s.store.ListUserRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewRequests(reqs), nil
}

// ListEventRequests returns the requests filed for an event the user
// initiated.
func (s *Service) ListEventRequests(ctx context.Context, userID, eventID uint) ([]dto.Request, error) {
	if _, err := s.store.GetUserEvent(ctx, eventID, userID); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListEventRequests(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return dto.NewRequests(reqs), nil
}
