package store

import (
	"context"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.conn(ctx).Create(u).Error
	return duplicateOr(err, apperr.Conflict("User with email %s already exists", u.Email))
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("User with id=%d was not found", id))
	}
	return &u, nil
}

func (s *Store) UserExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, dbError(err)
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, dbError(err)
}

// ListUsers returns users with the given ids, or all users when ids is empty.
func (s *Store) ListUsers(ctx context.Context, ids []uint, page Page) ([]models.User, error) {
	q := s.conn(ctx).Model(&models.User{})
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	var users []models.User
	err := page.apply(q.Order("id asc")).Find(&users).Error
	return users, dbError(err)
}

// UsersByIDs loads users keyed by id.
func (s *Store) UsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, dbError(err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// DeleteUser removes the user together with everything the user owns:
// initiated events (with their requests, comments and compilation links),
// the user's own requests and comments.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		db := tx.db
		owned := db.Model(&models.Event{}).Select("id").Where("initiator_id = ?", id)

		if err := db.Where("event_id IN (?)", owned).Delete(&models.ParticipationRequest{}).Error; err != nil {
			return dbError(err)
		}
		if err := db.Where("event_id IN (?)", owned).Delete(&models.Comment{}).Error; err != nil {
			return dbError(err)
		}
		if err := db.Where("event_id IN (?)", owned).Delete(&models.CompilationEvent{}).Error; err != nil {
			return dbError(err)
		}
		if err := db.Where("initiator_id = ?", id).Delete(&models.Event{}).Error; err != nil {
			return dbError(err)
		}
		if err := db.Where("requester_id = ?", id).Delete(&models.ParticipationRequest{}).Error; err != nil {
			return dbError(err)
		}
		if err := db.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return dbError(err)
		}
		res := db.Delete(&models.User{}, id)
		if res.Error != nil {
			return dbError(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("User with id=%d was not found", id)
		}
		return nil
	})
}
