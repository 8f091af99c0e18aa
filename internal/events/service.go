// Package events owns the event lifecycle: creation, owner and admin
// updates, state transitions and the decorated read views.
package events

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/stats"
	"explorewithme-backend/internal/store"
)

// MinLeadTime is how far ahead of now an owner must schedule an event.
const MinLeadTime = 2 * time.Hour

// Sort orders for public listings.
const (
	SortEventDate = "EVENT_DATE"
	SortViews     = "VIEWS"
)

// Aggregator records hits and serves view counts.
type Aggregator interface {
	RecordHit(ctx context.Context, h stats.Hit) error
	ViewCounts(ctx context.Context, uris []string) (map[string]int64, error)
}

// ViewDedup remembers which viewers already saw an event.
type ViewDedup interface {
	FirstView(ctx context.Context, eventID uint, viewer string) (bool, error)
	Reset(ctx context.Context, eventID uint) error
}

type Service struct {
	store *store.Store
	stats Aggregator
	dedup ViewDedup
	app   string
	now   func() time.Time
	log   *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithViewDedup counts at most one hit per viewer and event.
func WithViewDedup(d ViewDedup) Option {
	return func(s *Service) { s.dedup = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService builds the lifecycle manager. agg may be nil, in which case
// hits are dropped and every view count is zero.
func NewService(st *store.Store, agg Aggregator, app string, opts ...Option) *Service {
	s := &Service{
		store: st,
		stats: agg,
		app:   app,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewEvent is the payload of Create.
type NewEvent struct {
	Annotation        string
	Description       string
	Title             string
	Category          uint
	EventDate         time.Time
	Location          models.Location
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
}

// Patch holds optional changes. Nil fields are left untouched.
type Patch struct {
	Annotation        *string
	Description       *string
	Title             *string
	Category          *uint
	EventDate         *time.Time
	Location          *models.Location
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	StateAction       *models.StateAction
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) Create(ctx context.Context, userID uint, in NewEvent) (dto.EventFull, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return dto.EventFull{}, err
	}
	cat, err := s.store.GetCategory(ctx, in.Category)
	if err != nil {
		return dto.EventFull{}, err
	}
	now := s.clock()
	if err := checkLeadTime(in.EventDate, now); err != nil {
		return dto.EventFull{}, err
	}

	ev := models.Event{
		Annotation:        in.Annotation,
		Description:       in.Description,
		Title:             in.Title,
		EventDate:         in.EventDate.UTC(),
		CreatedOn:         now,
		RequestModeration: true,
		State:             models.EventPending,
		CategoryID:        cat.ID,
		InitiatorID:       user.ID,
		Location:          in.Location,
	}
	if in.Paid != nil {
		ev.Paid = *in.Paid
	}
	if in.ParticipantLimit != nil {
		if err := checkLimit(*in.ParticipantLimit); err != nil {
			return dto.EventFull{}, err
		}
		ev.ParticipantLimit = *in.ParticipantLimit
	}
	if in.RequestModeration != nil {
		ev.RequestModeration = *in.RequestModeration
	}
	if err := s.store.CreateEvent(ctx, &ev); err != nil {
		return dto.EventFull{}, err
	}

	s.log.Info("event created", "event_id", ev.ID, "user_id", userID)
	return dto.NewEventFull(ev, *cat, *user, 0, 0), nil
}

// UpdateByUser applies an owner patch. Published events are frozen for
// their owner.
func (s *Service) UpdateByUser(ctx context.Context, userID, eventID uint, p Patch) (dto.EventFull, error) {
	var ev *models.Event
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		if ev, err = tx.LockUserEvent(ctx, eventID, userID); err != nil {
			return err
		}
		if ev.State == models.EventPublished {
			return apperr.Conflict("Only pending or canceled events can be changed")
		}
		if p.EventDate != nil {
			if err := checkLeadTime(*p.EventDate, s.clock()); err != nil {
				return err
			}
		}
		if p.StateAction != nil {
			switch *p.StateAction {
			case models.SendToReview:
				ev.State = models.EventPending
			case models.CancelReview:
				ev.State = models.EventCanceled
			default:
				return apperr.Validation("Unsupported state action for user: %s", *p.StateAction)
			}
		}
		if err := applyPatch(ctx, tx, ev, p); err != nil {
			return err
		}
		return tx.SaveEvent(ctx, ev)
	})
	if err != nil {
		return dto.EventFull{}, err
	}

	s.log.Info("event updated by user", "event_id", ev.ID, "user_id", userID, "state", ev.State)
	return s.full(ctx, *ev)
}

// UpdateByAdmin applies an admin patch and drives publication.
func (s *Service) UpdateByAdmin(ctx context.Context, eventID uint, p Patch) (dto.EventFull, error) {
	var (
		ev        *models.Event
		published bool
	)
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		if ev, err = tx.LockEvent(ctx, eventID); err != nil {
			return err
		}
		now := s.clock()
		if p.EventDate != nil && p.EventDate.Before(now) {
			return apperr.Validation("Field: eventDate. Error: must not be in the past. Value: %s", dto.FormatDateTime(*p.EventDate))
		}
		if p.StateAction != nil {
			switch *p.StateAction {
			case models.PublishEvent:
				if ev.State != models.EventPending {
					return apperr.Conflict("Cannot publish the event because it's not in the right state: %s", ev.State)
				}
				ev.State = models.EventPublished
				ev.PublishedOn = &now
				published = true
			case models.RejectEvent:
				if ev.State == models.EventPublished {
					return apperr.Conflict("Cannot reject the event because it's already published")
				}
				ev.State = models.EventCanceled
			default:
				return apperr.Validation("Unsupported state action for admin: %s", *p.StateAction)
			}
		}
		if err := applyPatch(ctx, tx, ev, p); err != nil {
			return err
		}
		return tx.SaveEvent(ctx, ev)
	})
	if err != nil {
		return dto.EventFull{}, err
	}

	if published && s.dedup != nil {
		if err := s.dedup.Reset(ctx, ev.ID); err != nil {
			s.log.Warn("reset viewers failed", "event_id", ev.ID, "err", err)
		}
	}
	s.log.Info("event updated by admin", "event_id", ev.ID, "state", ev.State)
	return s.full(ctx, *ev)
}

func applyPatch(ctx context.Context, tx *store.Store, ev *models.Event, p Patch) error {
	if p.Category != nil {
		cat, err := tx.GetCategory(ctx, *p.Category)
		if err != nil {
			return err
		}
		ev.CategoryID = cat.ID
	}
	if p.ParticipantLimit != nil {
		if err := checkLimit(*p.ParticipantLimit); err != nil {
			return err
		}
		ev.ParticipantLimit = *p.ParticipantLimit
	}
	if p.Annotation != nil {
		ev.Annotation = *p.Annotation
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.EventDate != nil {
		ev.EventDate = p.EventDate.UTC()
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	if p.Paid != nil {
		ev.Paid = *p.Paid
	}
	if p.RequestModeration != nil {
		ev.RequestModeration = *p.RequestModeration
	}
	return nil
}

func checkLeadTime(date, now time.Time) error {
	if date.Before(now.Add(MinLeadTime)) {
		return apperr.Validation("Field: eventDate. Error: must be at least 2 hours from now. Value: %s", dto.FormatDateTime(date))
	}
	return nil
}

func checkLimit(limit int) error {
	if limit < 0 {
		return apperr.Validation("Field: participantLimit. Error: must not be negative. Value: %d", limit)
	}
	return nil
}

func (s *Service) GetUserEvents(ctx context.Context, userID uint, page store.Page) ([]dto.EventShort, error) {
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("User with id=%d was not found", userID)
	}
	events, err := s.store.ListUserEvents(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.Shorts(ctx, events)
}

func (s *Service) GetUserEvent(ctx context.Context, userID, eventID uint) (dto.EventFull, error) {
	ev, err := s.store.GetUserEvent(ctx, eventID, userID)
	if err != nil {
		return dto.EventFull{}, err
	}
	return s.full(ctx, *ev)
}

func (s *Service) GetAdminEvents(ctx context.Context, f store.AdminEventFilter, page store.Page) ([]dto.EventFull, error) {
	if err := checkRange(f.RangeStart, f.RangeEnd); err != nil {
		return nil, err
	}
	events, err := s.store.FindAdminEvents(ctx, f, page)
	if err != nil {
		return nil, err
	}
	d, err := s.decorate(ctx, events)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EventFull, 0, len(events))
	for _, ev := range events {
		out = append(out, d.full(ev))
	}
	return out, nil
}

// PublicQuery is a public event search.
type PublicQuery struct {
	Filter store.PublicEventFilter
	Sort   string
	Page   store.Page
}

// Viewer identifies the client of a public read.
type Viewer struct {
	IP  string
	URI string
}

// GetPublicEvents searches published events and records one hit for the
// listing itself.
func (s *Service) GetPublicEvents(ctx context.Context, q PublicQuery, v Viewer) ([]dto.EventShort, error) {
	if q.Sort != "" && q.Sort != SortEventDate && q.Sort != SortViews {
		return nil, apperr.Validation("Unknown sort: %s", q.Sort)
	}
	if err := checkRange(q.Filter.RangeStart, q.Filter.RangeEnd); err != nil {
		return nil, err
	}
	events, err := s.store.FindPublicEvents(ctx, q.Filter, s.clock(), q.Page)
	if err != nil {
		return nil, err
	}
	s.recordHit(ctx, v)

	out, err := s.Shorts(ctx, events)
	if err != nil {
		return nil, err
	}
	switch q.Sort {
	case SortEventDate:
		sort.SliceStable(out, func(i, j int) bool { return out[i].EventDate < out[j].EventDate })
	case SortViews:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	}
	return out, nil
}

// GetPublicEvent returns a published event and counts the view. A viewer
// already remembered by the dedup store is not recorded again.
func (s *Service) GetPublicEvent(ctx context.Context, eventID uint, v Viewer) (dto.EventFull, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return dto.EventFull{}, err
	}
	if ev.State != models.EventPublished {
		return dto.EventFull{}, apperr.NotFound("Event with id=%d was not found", eventID)
	}

	first := true
	if s.dedup != nil {
		if first, err = s.dedup.FirstView(ctx, ev.ID, v.IP); err != nil {
			s.log.Warn("view dedup unavailable", "event_id", ev.ID, "err", err)
			first = true
		}
	}
	if first {
		s.recordHit(ctx, v)
	}
	return s.full(ctx, *ev)
}

func (s *Service) recordHit(ctx context.Context, v Viewer) {
	if s.stats == nil {
		return
	}
	err := s.stats.RecordHit(ctx, stats.Hit{App: s.app, URI: v.URI, IP: v.IP, Timestamp: s.clock()})
	if err != nil {
		s.log.Warn("record hit failed", "uri", v.URI, "err", err)
	}
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperr.Validation("rangeEnd must not be before rangeStart")
	}
	return nil
}

// Shorts decorates events with their category, initiator, confirmed
// request count and views.
func (s *Service) Shorts(ctx context.Context, events []models.Event) ([]dto.EventShort, error) {
	d, err := s.decorate(ctx, events)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EventShort, 0, len(events))
	for _, ev := range events {
		out = append(out, d.short(ev))
	}
	return out, nil
}

func (s *Service) full(ctx context.Context, ev models.Event) (dto.EventFull, error) {
	d, err := s.decorate(ctx, []models.Event{ev})
	if err != nil {
		return dto.EventFull{}, err
	}
	return d.full(ev), nil
}

type decoration struct {
	categories map[uint]models.Category
	users      map[uint]models.User
	confirmed  map[uint]int64
	views      map[string]int64
}

func (d decoration) short(ev models.Event) dto.EventShort {
	return dto.NewEventShort(ev, d.categories[ev.CategoryID], d.users[ev.InitiatorID],
		d.confirmed[ev.ID], d.views[stats.EventURI(ev.ID)])
}

func (d decoration) full(ev models.Event) dto.EventFull {
	return dto.NewEventFull(ev, d.categories[ev.CategoryID], d.users[ev.InitiatorID],
		d.confirmed[ev.ID], d.views[stats.EventURI(ev.ID)])
}

// decorate loads everything the read views need in parallel. View counts
// never fail the read; they fall back to zero.
func (s *Service) decorate(ctx context.Context, events []models.Event) (decoration, error) {
	var d decoration
	if len(events) == 0 {
		return d, nil
	}
	ids := make([]uint, 0, len(events))
	catIDs := make([]uint, 0, len(events))
	userIDs := make([]uint, 0, len(events))
	uris := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
		catIDs = append(catIDs, ev.CategoryID)
		userIDs = append(userIDs, ev.InitiatorID)
		uris = append(uris, stats.EventURI(ev.ID))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.categories, err = s.store.CategoriesByIDs(gctx, catIDs)
		return err
	})
	g.Go(func() (err error) {
		d.users, err = s.store.UsersByIDs(gctx, userIDs)
		return err
	})
	g.Go(func() (err error) {
		d.confirmed, err = s.store.CountConfirmedByEvents(gctx, ids)
		return err
	})
	g.Go(func() error {
		d.views = s.viewCounts(gctx, uris)
		return nil
	})
	if err := g.Wait(); err != nil {
		return decoration{}, err
	}
	return d, nil
}

func (s *Service) viewCounts(ctx context.Context, uris []string) map[string]int64 {
	if s.stats == nil {
		return map[string]int64{}
	}
	views, err := s.stats.ViewCounts(ctx, uris)
	if err != nil {
		s.log.Warn("view counts unavailable, using zero", "err", err)
		return map[string]int64{}
	}
	return views
}
