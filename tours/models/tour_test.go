package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/natours/internal/apperror"
)

func validTour() *Tour {
	return &Tour{
		Name:         "  The Forest Hiker ",
		Price:        397,
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   "easy",
		Summary:      " Breathtaking hike through the Canadian Banff National Park ",
		ImageCover:   "tour-1-cover.jpg",
	}
}

func TestTourDefaults(t *testing.T) {
	tour := validTour()
	tour.ApplyDefaults()

	assert.Equal(t, "The Forest Hiker", tour.Name)
	assert.Equal(t, "Breathtaking hike through the Canadian Banff National Park", tour.Summary)
	assert.Equal(t, DefaultRatingsAverage, tour.RatingsAverage)
	assert.Equal(t, 0, tour.RatingsQuantity)
	assert.False(t, tour.CreatedAt.IsZero())
	assert.NotNil(t, tour.Images)
	assert.NoError(t, tour.Validate())

	tour.RatingsAverage = 4.8
	tour.ApplyDefaults()
	assert.Equal(t, 4.8, tour.RatingsAverage)
}

func TestTourValidate(t *testing.T) {
	err := (&Tour{Price: 10}).Validate()
	require.Error(t, err)

	var valErr *apperror.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Tour", valErr.Model)
	assert.Equal(t, []string{
		"A tour must have a name",
		"A tour must have a duration",
		"A tour must have a group size",
		"A tour must have a difficulty",
		"A tour must have a summary",
		"A tour must have a cover image",
	}, valErr.Messages())
}

func TestTourJSONHidesCreatedAt(t *testing.T) {
	tour := validTour()
	tour.ApplyDefaults()

	raw, err := json.Marshal(tour)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotContains(t, out, "createdAt")
	assert.NotContains(t, out, "priceDiscount")
	assert.Contains(t, out, "_id")
	assert.Contains(t, out, "__v")
}
