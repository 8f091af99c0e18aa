// Package comments runs the comment moderation workflow.
package comments

import (
	"context"
	"log/slog"
	"time"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/store"
)

const (
	// MaxEdits caps how often an author may edit a comment.
	MaxEdits = 5
	// EditWindow is how long after creation a comment stays editable.
	EditWindow = 24 * time.Hour
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

// Create adds the author's only comment on a published event. New comments
// wait for moderation.
func (s *Service) Create(ctx context.Context, userID, eventID uint, text string) (dto.Comment, error) {
	var (
		author  *models.User
		comment models.Comment
	)
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		if author, err = tx.GetUser(ctx, userID); err != nil {
			return err
		}
		ev, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.State != models.EventPublished {
			return apperr.Conflict("Cannot comment on unpublished event")
		}
		exists, err := tx.CommentExists(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("User already commented this event")
		}
		comment = models.Comment{
			Text:     text,
			Status:   models.CommentPending,
			Created:  s.now().UTC(),
			AuthorID: userID,
			EventID:  eventID,
		}
		return tx.CreateComment(ctx, &comment)
	})
	if err != nil {
		return dto.Comment{}, err
	}

	s.log.Info("comment created", "comment_id", comment.ID, "event_id", eventID, "user_id", userID)
	return dto.NewComment(comment, *author), nil
}

// Update replaces the text and sends the comment back to moderation.
func (s *Service) Update(ctx context.Context, userID, commentID uint, text string) (dto.Comment, error) {
	var c *models.Comment
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		if c, err = tx.LockComment(ctx, commentID); err != nil {
			return err
		}
		if c.AuthorID != userID {
			return apperr.Conflict("Only comment author can update the comment")
		}
		if c.Status.Deleted() {
			return apperr.Conflict("Cannot update deleted comment")
		}
		now := s.now().UTC()
		if now.Sub(c.Created) > EditWindow {
			return apperr.Validation("Comment can only be edited within 24 hours of creation")
		}
		if c.EditCount >= MaxEdits {
			return apperr.Validation("Maximum %d edits allowed per comment", MaxEdits)
		}
		c.Text = text
		c.Status = models.CommentPending
		c.EditCount++
		c.Updated = &now
		c.RejectionReason = nil
		return tx.SaveComment(ctx, c)
	})
	if err != nil {
		return dto.Comment{}, err
	}

	s.log.Info("comment updated", "comment_id", commentID, "edit_count", c.EditCount)
	return s.one(ctx, *c)
}

// Delete is the author's soft delete. Repeating it is a no-op; a comment
// removed by an administrator stays that way.
func (s *Service) Delete(ctx context.Context, userID, commentID uint) error {
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		c, err := tx.LockComment(ctx, commentID)
		if err != nil {
			return err
		}
		if c.AuthorID != userID {
			return apperr.Conflict("Only comment author can delete the comment")
		}
		switch c.Status {
		case models.CommentDeletedByUser:
			return nil
		case models.CommentDeletedByAdmin:
			return apperr.Conflict("Comment was already removed by administrator")
		}
		c.Status = models.CommentDeletedByUser
		return tx.SaveComment(ctx, c)
	})
	if err != nil {
		return err
	}

	s.log.Info("comment deleted by author", "comment_id", commentID, "user_id", userID)
	return nil
}

// Moderate decides on a pending comment. A rejection keeps its reason; any
// other outcome clears it.
func (s *Service) Moderate(ctx context.Context, commentID uint, status models.CommentStatus, reason string) (dto.Comment, error) {
	switch status {
	case models.CommentApproved, models.CommentRejected, models.CommentDeletedByAdmin:
	default:
		return dto.Comment{}, apperr.Validation("Comment can not be moderated to %s", status)
	}

	var c *models.Comment
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		if c, err = tx.LockComment(ctx, commentID); err != nil {
			return err
		}
		if c.Status != models.CommentPending {
			return apperr.Conflict("Only pending comments can be moderated")
		}
		c.Status = status
		c.RejectionReason = nil
		if status == models.CommentRejected && reason != "" {
			c.RejectionReason = &reason
		}
		return tx.SaveComment(ctx, c)
	})
	if err != nil {
		return dto.Comment{}, err
	}

	s.log.Info("comment moderated", "comment_id", commentID, "status", status)
	return s.one(ctx, *c)
}

// AdminDelete removes a comment in any state.
func (s *Service) AdminDelete(ctx context.Context, commentID uint) error {
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		c, err := tx.LockComment(ctx, commentID)
		if err != nil {
			return err
		}
		c.Status = models.CommentDeletedByAdmin
		c.RejectionReason = nil
		return tx.SaveComment(ctx, c)
	})
	if err != nil {
		return err
	}

	s.log.Info("comment deleted by admin", "comment_id", commentID)
	return nil
}

// ListEvent lists comments of an event. Without a status only approved
// comments are returned.
func (s *Service) ListEvent(ctx context.Context, eventID uint, status *models.CommentStatus, page store.Page) ([]dto.Comment, error) {
	ok, err := s.store.EventExists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("Event with id=%d was not found", eventID)
	}
	st := models.CommentApproved
	if status != nil {
		st = *status
	}
	list, err := s.store.ListEventComments(ctx, eventID, st, page)
	if err != nil {
		return nil, err
	}
	return s.many(ctx, list)
}

// GetEventComment returns an approved comment of an event.
func (s *Service) GetEventComment(ctx context.Context, eventID, commentID uint) (dto.Comment, error) {
	c, err := s.store.GetEventComment(ctx, eventID, commentID)
	if err != nil {
		return dto.Comment{}, err
	}
	if c.Status != models.CommentApproved {
		return dto.Comment{}, apperr.NotFound("Comment with id=%d was not found for event id=%d", commentID, eventID)
	}
	return s.one(ctx, *c)
}

// ListUser lists everything the user wrote, deleted comments included.
func (s *Service) ListUser(ctx context.Context, userID uint, page store.Page) ([]dto.Comment, error) {
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("User with id=%d was not found", userID)
	}
	list, err := s.store.ListUserComments(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.many(ctx, list)
}

// ListForModeration lists comments by status, pending ones by default.
func (s *Service) ListForModeration(ctx context.Context, status *models.CommentStatus, page store.Page) ([]dto.Comment, error) {
	st := models.CommentPending
	if status != nil {
		st = *status
	}
	list, err := s.store.ListCommentsByStatus(ctx, st, page)
	if err != nil {
		return nil, err
	}
	return s.many(ctx, list)
}

func (s *Service) one(ctx context.Context, c models.Comment) (dto.Comment, error) {
	author, err := s.store.GetUser(ctx, c.AuthorID)
	if err != nil {
		return dto.Comment{}, err
	}
	return dto.NewComment(c, *author), nil
}

func (s *Service) many(ctx context.Context, list []models.Comment) ([]dto.Comment, error) {
	ids := make([]uint, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.AuthorID)
	}
	authors, err := s.store.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Comment, 0, len(list))
	for _, c := range list {
		out = append(out, dto.NewComment(c, authors[c.AuthorID]))
	}
	return out, nil
}
