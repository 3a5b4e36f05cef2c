package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"friendspark/geohash"
	"friendspark/proximity"
)

const (
	MaxTitleLength         = 100
	DefaultDurationMinutes = 120
	MaxAttendeesLimit      = 100
)

// ErrInvalidEvent is wrapped by every validation failure in this package.
var ErrInvalidEvent = errors.New("invalid event")

type Event struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Geohash         string    `json:"geohash"`
	EventDate       time.Time `json:"event_date"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxAttendees    *int      `json:"max_attendees,omitempty"`
	IsPublic        bool      `json:"is_public"`
	IsHidden        bool      `json:"is_hidden"`
	HiddenReason    string    `json:"hidden_reason,omitempty"`
	CreatorID       uuid.UUID `json:"creator_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EventInput is the payload for creating an event. Zero EventDate means
// now, zero DurationMinutes means DefaultDurationMinutes and a nil IsPublic
// means public.
type EventInput struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	EventDate       time.Time `json:"event_date"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxAttendees    *int      `json:"max_attendees"`
	IsPublic        *bool     `json:"is_public"`
	CreatorID       uuid.UUID `json:"creator_id"`
}

// EventPatch is a partial update; nil fields are left unchanged.
type EventPatch struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	EventDate       *time.Time `json:"event_date"`
	DurationMinutes *int       `json:"duration_minutes"`
	MaxAttendees    *int       `json:"max_attendees"`
	IsPublic        *bool      `json:"is_public"`
	IsHidden        *bool      `json:"is_hidden"`
	HiddenReason    *string    `json:"hidden_reason"`
}

// NewEvent validates in and builds an event with a fresh id and a
// storage-precision geohash.
func NewEvent(in EventInput, now time.Time) (*Event, error) {
	now = now.UTC()
	e := &Event{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		EventDate:       in.EventDate.UTC(),
		DurationMinutes: in.DurationMinutes,
		MaxAttendees:    in.MaxAttendees,
		IsPublic:        true,
		CreatorID:       in.CreatorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.EventDate.IsZero() {
		e.EventDate = now
	}
	if e.DurationMinutes == 0 {
		e.DurationMinutes = DefaultDurationMinutes
	}
	if in.IsPublic != nil {
		e.IsPublic = *in.IsPublic
	}
	if e.CreatorID == uuid.Nil {
		return nil, fmt.Errorf("%w: creator_id is required", ErrInvalidEvent)
	}
	if err := e.SetLocation(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// SetLocation moves the event and recomputes its geohash. On error the
// event is unchanged.
func (e *Event) SetLocation(latitude, longitude float64) error {
	hash, err := geohash.Encode(latitude, longitude, proximity.StoragePrecision)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	e.Latitude, e.Longitude, e.Geohash = latitude, longitude, hash
	return nil
}

// ApplyPatch applies p atomically: either every field is updated or, on a
// validation error, none is. Patching either coordinate recomputes the
// geohash from the resulting pair.
func (e *Event) ApplyPatch(p EventPatch, now time.Time) error {
	next := *e
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.EventDate != nil {
		next.EventDate = p.EventDate.UTC()
	}
	if p.DurationMinutes != nil {
		next.DurationMinutes = *p.DurationMinutes
	}
	if p.MaxAttendees != nil {
		v := *p.MaxAttendees
		next.MaxAttendees = &v
	}
	if p.IsPublic != nil {
		next.IsPublic = *p.IsPublic
	}
	if p.IsHidden != nil {
		next.IsHidden = *p.IsHidden
		if !next.IsHidden {
			next.HiddenReason = ""
		}
	}
	if p.HiddenReason != nil && next.IsHidden {
		next.HiddenReason = *p.HiddenReason
	}
	if p.Latitude != nil || p.Longitude != nil {
		lat, lon := e.Latitude, e.Longitude
		if p.Latitude != nil {
			lat = *p.Latitude
		}
		if p.Longitude != nil {
			lon = *p.Longitude
		}
		if err := next.SetLocation(lat, lon); err != nil {
			return err
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.UpdatedAt = now.UTC()
	*e = next
	return nil
}

// Visible reports whether the event may appear in discovery results.
func (e *Event) Visible() bool {
	return !e.IsHidden
}

func (e *Event) Coordinate() geohash.Coordinate {
	return geohash.Coordinate{Latitude: e.Latitude, Longitude: e.Longitude}
}

func (e *Event) validate() error {
	if e.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if n := utf8.RuneCountInString(e.Title); n > MaxTitleLength {
		return fmt.Errorf("%w: title has %d characters, at most %d allowed",
			ErrInvalidEvent, n, MaxTitleLength)
	}
	if e.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidEvent)
	}
	if m := e.MaxAttendees; m != nil && (*m <= 0 || *m > MaxAttendeesLimit) {
		return fmt.Errorf("%w: max_attendees %d outside [1, %d]",
			ErrInvalidEvent, *m, MaxAttendeesLimit)
	}
	return nil
}

// ErrEventNotFound is returned when no event has the requested id.
var ErrEventNotFound = errors.New("event not found")
