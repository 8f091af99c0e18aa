package store

import (
	"context"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	err := s.conn(ctx).Create(c).Error
	return duplicateOr(err, apperr.Conflict("User already commented this event"))
}

func (s *Store) SaveComment(ctx context.Context, c *models.Comment) error {
	return dbError(s.conn(ctx).Save(c).Error)
}

func (s *Store) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Comment with id=%d was not found", id))
	}
	return &c, nil
}

// LockComment loads a comment under a row lock for read-modify-write.
func (s *Store) LockComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.forUpdate(s.conn(ctx)).First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Comment with id=%d was not found", id))
	}
	return &c, nil
}

func (s *Store) GetEventComment(ctx context.Context, eventID, id uint) (*models.Comment, error) {
	var c models.Comment
	err := s.conn(ctx).Where("id = ? AND event_id = ?", id, eventID).First(&c).Error
	if err != nil {
		return nil, notFoundOr(err, apperr.NotFound("Comment with id=%d was not found for event id=%d", id, eventID))
	}
	return &c, nil
}

func (s *Store) CommentExists(ctx context.Context, eventID, authorID uint) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Comment{}).
		Where("event_id = ? AND author_id = ?", eventID, authorID).
		Count(&n).Error
	return n > 0, dbError(err)
}

func (s *Store) ListEventComments(ctx context.Context, eventID uint, status models.CommentStatus, page Page) ([]models.Comment, error) {
	var comments []models.Comment
	q := s.conn(ctx).Where("event_id = ? AND status = ?", eventID, status).Order("id asc")
	err := page.apply(q).Find(&comments).Error
	return comments, dbError(err)
}

func (s *Store) ListUserComments(ctx context.Context, authorID uint, page Page) ([]models.Comment, error) {
	var comments []models.Comment
	q := s.conn(ctx).Where("author_id = ?", authorID).Order("id asc")
	err := page.apply(q).Find(&comments).Error
	return comments, dbError(err)
}

func (s *Store) ListCommentsByStatus(ctx context.Context, status models.CommentStatus, page Page) ([]models.Comment, error) {
	var comments []models.Comment
	q := s.conn(ctx).Where("status = ?", status).Order("id asc")
	err := page.apply(q).Find(&comments).Error
	return comments, dbError(err)
}
