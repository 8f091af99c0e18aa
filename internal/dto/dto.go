// Package dto holds the read views returned to callers and the date
// formats they use.
package dto

import (
	"time"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

const (
	// DateTimeLayout is used for event and comment timestamps.
	DateTimeLayout = "2006-01-02 15:04:05"
	// RequestTimeLayout is used for participation request timestamps.
	RequestTimeLayout = "2006-01-02T15:04:05.000"
)

// ParseDateTime parses a DateTimeLayout value as UTC.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, apperr.Validation("Invalid date format. Use 'yyyy-MM-dd HH:mm:ss'. Value: %s", s)
	}
	return t, nil
}

// ParseOptionalDateTime parses s when non-empty.
func ParseOptionalDateTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDateTime(*t)
}

type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UserShort struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type EventShort struct {
	ID                uint      `json:"id"`
	Annotation        string    `json:"annotation"`
	Category          Category  `json:"category"`
	ConfirmedRequests int64     `json:"confirmedRequests"`
	EventDate         string    `json:"eventDate"`
	Initiator         UserShort `json:"initiator"`
	Paid              bool      `json:"paid"`
	Title             string    `json:"title"`
	Views             int64     `json:"views"`
}

type EventFull struct {
	EventShort
	CreatedOn         string            `json:"createdOn"`
	Description       string            `json:"description"`
	Location          Location          `json:"location"`
	ParticipantLimit  int               `json:"participantLimit"`
	PublishedOn       string            `json:"publishedOn,omitempty"`
	RequestModeration bool              `json:"requestModeration"`
	State             models.EventState `json:"state"`
}

type Request struct {
	ID        uint                 `json:"id"`
	Created   string               `json:"created"`
	Event     uint                 `json:"event"`
	Requester uint                 `json:"requester"`
	Status    models.RequestStatus `json:"status"`
}

type RequestStatusUpdateResult struct {
	ConfirmedRequests []Request `json:"confirmedRequests"`
	RejectedRequests  []Request `json:"rejectedRequests"`
}

type Comment struct {
	ID              uint                 `json:"id"`
	Text            string               `json:"text"`
	Status          models.CommentStatus `json:"status"`
	Created         string               `json:"created"`
	Updated         string               `json:"updated,omitempty"`
	EditCount       int                  `json:"editCount"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	Author          UserShort            `json:"author"`
	EventID         uint                 `json:"eventId"`
}

type Compilation struct {
	ID     uint         `json:"id"`
	Events []EventShort `json:"events"`
	Pinned bool         `json:"pinned"`
	Title  string       `json:"title"`
}

func NewUser(u models.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email}
}

func NewUserShort(u models.User) UserShort {
	return UserShort{ID: u.ID, Name: u.Name}
}

func NewCategory(c models.Category) Category {
	return Category{ID: c.ID, Name: c.Name}
}

func NewEventShort(e models.Event, cat models.Category, initiator models.User, confirmed, views int64) EventShort {
	return EventShort{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Category:          NewCategory(cat),
		ConfirmedRequests: confirmed,
		EventDate:         FormatDateTime(e.EventDate),
		Initiator:         NewUserShort(initiator),
		Paid:              e.Paid,
		Title:             e.Title,
		Views:             views,
	}
}

func NewEventFull(e models.Event, cat models.Category, initiator models.User, confirmed, views int64) EventFull {
	return EventFull{
		EventShort:        NewEventShort(e, cat, initiator, confirmed, views),
		CreatedOn:         FormatDateTime(e.CreatedOn),
		Description:       e.Description,
		Location:          Location{Lat: e.Location.Lat, Lon: e.Location.Lon},
		ParticipantLimit:  e.ParticipantLimit,
		PublishedOn:       formatOptional(e.PublishedOn),
		RequestModeration: e.RequestModeration,
		State:             e.State,
	}
}

func NewRequest(r models.ParticipationRequest) Request {
	return Request{
		ID:        r.ID,
		Created:   r.Created.UTC().Format(RequestTimeLayout),
		Event:     r.EventID,
		Requester: r.RequesterID,
		Status:    r.Status,
	}
}

func NewRequests(rs []models.ParticipationRequest) []Request {
	out := make([]Request, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewRequest(r))
	}
	return out
}

func NewComment(c models.Comment, author models.User) Comment {
	out := Comment{
		ID:        c.ID,
		Text:      c.Text,
		Status:    c.Status,
		Created:   FormatDateTime(c.Created),
		Updated:   formatOptional(c.Updated),
		EditCount: c.EditCount,
		Author:    NewUserShort(author),
		EventID:   c.EventID,
	}
	if c.RejectionReason != nil {
		out.RejectionReason = *c.RejectionReason
	}
	return out
}
