package main

import (
	"strings"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/catalog"
	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/events"
	"explorewithme-backend/internal/models"
)

// Request payloads bound by the handlers.

type LocationBody struct {
	Lat *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lon *float64 `json:"lon" binding:"required,min=-180,max=180"`
}

func (l *LocationBody) model() models.Location {
	return models.Location{Lat: *l.Lat, Lon: *l.Lon}
}

type NewEventRequest struct {
	Annotation        string        `json:"annotation" binding:"required,min=20,max=2000"`
	Category          uint          `json:"category" binding:"required"`
	Description       string        `json:"description" binding:"required,min=20,max=7000"`
	EventDate         string        `json:"eventDate" binding:"required"`
	Location          *LocationBody `json:"location" binding:"required"`
	Paid              *bool         `json:"paid"`
	ParticipantLimit  *int          `json:"participantLimit" binding:"omitempty,min=0"`
	RequestModeration *bool         `json:"requestModeration"`
	Title             string        `json:"title" binding:"required,min=3,max=120"`
}

func (r NewEventRequest) toInput() (events.NewEvent, error) {
	if err := notBlank("annotation", r.Annotation, "description", r.Description, "title", r.Title); err != nil {
		return events.NewEvent{}, err
	}
	date, err := dto.ParseDateTime(r.EventDate)
	if err != nil {
		return events.NewEvent{}, err
	}
	return events.NewEvent{
		Annotation:        r.Annotation,
		Description:       r.Description,
		Title:             r.Title,
		Category:          r.Category,
		EventDate:         date,
		Location:          r.Location.model(),
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: r.RequestModeration,
	}, nil
}

// UpdateEventRequest serves both the owner and the admin update; the
// allowed state actions differ.
type UpdateEventRequest struct {
	Annotation        *string       `json:"annotation" binding:"omitempty,min=20,max=2000"`
	Category          *uint         `json:"category"`
	Description       *string       `json:"description" binding:"omitempty,min=20,max=7000"`
	EventDate         *string       `json:"eventDate"`
	Location          *LocationBody `json:"location"`
	Paid              *bool         `json:"paid"`
	ParticipantLimit  *int          `json:"participantLimit" binding:"omitempty,min=0"`
	RequestModeration *bool         `json:"requestModeration"`
	StateAction       *string       `json:"stateAction"`
	Title             *string       `json:"title" binding:"omitempty,min=3,max=120"`
}

func (r UpdateEventRequest) toPatch(allowed ...models.StateAction) (events.Patch, error) {
	p := events.Patch{
		Annotation:        r.Annotation,
		Category:          r.Category,
		Description:       r.Description,
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: r.RequestModeration,
		Title:             r.Title,
	}
	for _, f := range []struct {
		name  string
		value *string
	}{{"annotation", r.Annotation}, {"description", r.Description}, {"title", r.Title}} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return p, apperr.Validation("Field: %s. Error: must not be blank. Value: %s", f.name, *f.value)
		}
	}
	if r.EventDate != nil {
		date, err := dto.ParseDateTime(*r.EventDate)
		if err != nil {
			return p, err
		}
		p.EventDate = &date
	}
	if r.Location != nil {
		if r.Location.Lat == nil || r.Location.Lon == nil {
			return p, apperr.Validation("Field: location. Error: lat and lon are required")
		}
		loc := r.Location.model()
		p.Location = &loc
	}
	if r.StateAction != nil {
		action := models.StateAction(*r.StateAction)
		ok := false
		for _, a := range allowed {
			ok = ok || a == action
		}
		if !ok {
			return p, apperr.Validation("Field: stateAction. Error: unsupported value. Value: %s", *r.StateAction)
		}
		p.StateAction = &action
	}
	return p, nil
}

type StatusUpdateRequest struct {
	RequestIDs []uint `json:"requestIds" binding:"required"`
	Status     string `json:"status" binding:"required,oneof=CONFIRMED REJECTED"`
}

type NewCommentRequest struct {
	EventID uint   `json:"eventId" binding:"required"`
	Text    string `json:"text" binding:"required,max=1000"`
}

type UpdateCommentRequest struct {
	Text string `json:"text" binding:"required,max=1000"`
}

type NewUserRequest struct {
	Email string `json:"email" binding:"required,email,min=6,max=254"`
	Name  string `json:"name" binding:"required,min=2,max=250"`
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

type NewCompilationRequest struct {
	Events []uint `json:"events"`
	Pinned bool   `json:"pinned"`
	Title  string `json:"title" binding:"required,max=50"`
}

type UpdateCompilationRequest struct {
	Events *[]uint `json:"events"`
	Pinned *bool   `json:"pinned"`
	Title  *string `json:"title" binding:"omitempty,min=1,max=50"`
}

func (r UpdateCompilationRequest) toPatch() catalog.CompilationPatch {
	return catalog.CompilationPatch{Title: r.Title, Pinned: r.Pinned, Events: r.Events}
}

// notBlank takes name/value pairs and rejects whitespace-only values.
func notBlank(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperr.Validation("Field: %s. Error: must not be blank. Value: %s", pairs[i], pairs[i+1])
		}
	}
	return nil
}
