// Package models holds the persisted entities. Entities reference each other
// by id only; related rows are loaded through the store.
package models

import (
	"time"
)

type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

func (s EventState) Valid() bool {
	switch s {
	case EventPending, EventPublished, EventCanceled:
		return true
	}
	return false
}

// StateAction is a requested transition on an event.
type StateAction string

const (
	SendToReview StateAction = "SEND_TO_REVIEW"
	CancelReview StateAction = "CANCEL_REVIEW"
	PublishEvent StateAction = "PUBLISH_EVENT"
	RejectEvent  StateAction = "REJECT_EVENT"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestCanceled  RequestStatus = "CANCELED"
	RequestRejected  RequestStatus = "REJECTED"
)

type CommentStatus string

const (
	CommentPending        CommentStatus = "PENDING"
	CommentApproved       CommentStatus = "APPROVED"
	CommentRejected       CommentStatus = "REJECTED"
	CommentDeletedByUser  CommentStatus = "DELETED_BY_USER"
	CommentDeletedByAdmin CommentStatus = "DELETED_BY_ADMIN"
)

func (s CommentStatus) Valid() bool {
	switch s {
	case CommentPending, CommentApproved, CommentRejected, CommentDeletedByUser, CommentDeletedByAdmin:
		return true
	}
	return false
}

// Deleted reports whether the comment reached a terminal deleted state.
func (s CommentStatus) Deleted() bool {
	return s == CommentDeletedByUser || s == CommentDeletedByAdmin
}

type User struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:250;not null"`
	Email string `gorm:"size:254;uniqueIndex;not null"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;uniqueIndex;not null"`
}

type Location struct {
	Lat float64
	Lon float64
}

type Event struct {
	ID                uint       `gorm:"primaryKey"`
	Annotation        string     `gorm:"size:2000;not null"`
	Description       string     `gorm:"size:7000;not null"`
	Title             string     `gorm:"size:120;not null"`
	EventDate         time.Time  `gorm:"not null;index"`
	CreatedOn         time.Time  `gorm:"not null"`
	Paid              bool       `gorm:"not null"`
	ParticipantLimit  int        `gorm:"not null"`
	RequestModeration bool       `gorm:"not null"`
	State             EventState `gorm:"size:16;not null;index"`
	CategoryID        uint       `gorm:"not null;index"`
	InitiatorID       uint       `gorm:"not null;index"`
	Location          Location   `gorm:"embedded;embeddedPrefix:location_"`
	PublishedOn       *time.Time
	UpdatedAt         time.Time
}

// Unlimited reports whether the event accepts any number of participants.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

type ParticipationRequest struct {
	ID          uint          `gorm:"primaryKey"`
	EventID     uint          `gorm:"not null;uniqueIndex:idx_request_event_requester"`
	RequesterID uint          `gorm:"not null;uniqueIndex:idx_request_event_requester;index"`
	Created     time.Time     `gorm:"not null"`
	Status      RequestStatus `gorm:"size:16;not null;index"`
}

type Comment struct {
	ID              uint          `gorm:"primaryKey"`
	Text            string        `gorm:"size:1000;not null"`
	Status          CommentStatus `gorm:"size:20;not null;index"`
	Created         time.Time     `gorm:"not null"`
	EditCount       int           `gorm:"not null"`
	RejectionReason *string       `gorm:"size:500"`
	AuthorID        uint          `gorm:"not null;uniqueIndex:idx_comment_event_author;index"`
	EventID         uint          `gorm:"not null;uniqueIndex:idx_comment_event_author"`
	Updated         *time.Time
}

type Compilation struct {
	ID     uint   `gorm:"primaryKey"`
	Title  string `gorm:"size:50;not null"`
	Pinned bool   `gorm:"not null"`
}

// CompilationEvent links a compilation to one of its events.
type CompilationEvent struct {
	CompilationID uint `gorm:"primaryKey"`
	EventID       uint `gorm:"primaryKey;index"`
}

// All lists every entity for migrations.
func All() []any {
	return []any{
		&User{}, &Category{}, &Event{}, &ParticipationRequest{},
		&Comment{}, &Compilation{}, &CompilationEvent{},
	}
}
