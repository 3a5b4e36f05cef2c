package models_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendspark/geohash"
	"friendspark/models"
)

var (
	created = time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	later   = created.Add(time.Hour)
	creator = uuid.MustParse("9b2f1f4e-3a0c-4bb0-9f43-6c1d1c0f8a11")
)

func ptr[T any](v T) *T { return &v }

func validInput() models.EventInput {
	return models.EventInput{
		Title:     "Board games",
		Latitude:  57.64911,
		Longitude: 10.40744,
		CreatorID: creator,
	}
}

func TestNewEventDefaults(t *testing.T) {
	e, err := models.NewEvent(validInput(), created)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, "u4pruydqqvj8", e.Geohash)
	assert.Equal(t, models.DefaultDurationMinutes, e.DurationMinutes)
	assert.True(t, e.IsPublic)
	assert.True(t, e.Visible())
	assert.Equal(t, created, e.EventDate)
	assert.Equal(t, created, e.CreatedAt)
	assert.Equal(t, created, e.UpdatedAt)
}

func TestNewEventValidation(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*models.EventInput)
	}{
		{"blank title", func(in *models.EventInput) { in.Title = "   " }},
		{"long title", func(in *models.EventInput) { in.Title = strings.Repeat("é", 101) }},
		{"latitude", func(in *models.EventInput) { in.Latitude = 91 }},
		{"longitude", func(in *models.EventInput) { in.Longitude = -181 }},
		{"duration", func(in *models.EventInput) { in.DurationMinutes = -5 }},
		{"max attendees", func(in *models.EventInput) { in.MaxAttendees = ptr(0) }},
		{"creator", func(in *models.EventInput) { in.CreatorID = uuid.Nil }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := models.NewEvent(in, created)
			assert.ErrorIs(t, err, models.ErrInvalidEvent)
		})
	}

	in := validInput()
	in.Title = strings.Repeat("é", 100)
	_, err := models.NewEvent(in, created)
	assert.NoError(t, err)

	in = validInput()
	in.Latitude = 100
	_, err = models.NewEvent(in, created)
	assert.ErrorIs(t, err, geohash.ErrInvalidArgument)
}

func TestApplyPatchRecomputesGeohashOnEitherCoordinate(t *testing.T) {
	e, err := models.NewEvent(validInput(), created)
	require.NoError(t, err)

	require.NoError(t, e.ApplyPatch(models.EventPatch{Latitude: ptr(0.0)}, later))
	want, err := geohash.Encode(0, 10.40744, geohash.MaxPrecision)
	require.NoError(t, err)
	assert.Equal(t, want, e.Geohash)
	assert.Equal(t, 10.40744, e.Longitude)
	assert.Equal(t, later, e.UpdatedAt)

	require.NoError(t, e.ApplyPatch(models.EventPatch{Longitude: ptr(0.0)}, later))
	assert.Equal(t, "s00000000000", e.Geohash)
}

func TestApplyPatchIsAtomic(t *testing.T) {
	e, err := models.NewEvent(validInput(), created)
	require.NoError(t, err)
	before := *e

	err = e.ApplyPatch(models.EventPatch{Title: ptr("Chess"), Latitude: ptr(95.0)}, later)
	assert.ErrorIs(t, err, models.ErrInvalidEvent)
	assert.Equal(t, before, *e)

	err = e.ApplyPatch(models.EventPatch{Title: ptr(""), Latitude: ptr(1.0)}, later)
	assert.ErrorIs(t, err, models.ErrInvalidEvent)
	assert.Equal(t, before, *e)
}

func TestApplyPatchHiding(t *testing.T) {
	e, err := models.NewEvent(validInput(), created)
	require.NoError(t, err)

	require.NoError(t, e.ApplyPatch(models.EventPatch{IsHidden: ptr(true), HiddenReason: ptr("spam")}, later))
	assert.False(t, e.Visible())
	assert.Equal(t, "spam", e.HiddenReason)

	require.NoError(t, e.ApplyPatch(models.EventPatch{IsHidden: ptr(false)}, later))
	assert.True(t, e.Visible())
	assert.Empty(t, e.HiddenReason)
}
