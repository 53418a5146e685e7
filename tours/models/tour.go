package models

import (
	"strings"
	"time"

	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/validation"
)

const (
	CollectionName = "tours"

	DefaultRatingsAverage = 4.5
)

// Tour is a bookable tour.
type Tour struct {
	interfaces.Base `bson:",inline"`
	Name            string      `bson:"name" json:"name" validate:"required"`
	RatingsAverage  float64     `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity int         `bson:"ratingsQuantity" json:"ratingsQuantity"`
	Price           float64     `bson:"price" json:"price" validate:"required"`
	PriceDiscount   *float64    `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	Duration        int         `bson:"duration" json:"duration" validate:"required"`
	MaxGroupSize    int         `bson:"maxGroupSize" json:"maxGroupSize" validate:"required"`
	Difficulty      string      `bson:"difficulty" json:"difficulty" validate:"required"`
	Summary         string      `bson:"summary" json:"summary" validate:"required"`
	Description     string      `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string      `bson:"imageCover" json:"imageCover" validate:"required"`
	Images          []string    `bson:"images" json:"images"`
	CreatedAt       time.Time   `bson:"createdAt" json:"-"`
	StartDates      []time.Time `bson:"startDates" json:"startDates"`
}

var messages = validation.Messages{
	"name.required":         "A tour must have a name",
	"price.required":        "A tour must have a price",
	"duration.required":     "A tour must have a duration",
	"maxGroupSize.required": "A tour must have a group size",
	"difficulty.required":   "A tour must have a difficulty",
	"summary.required":      "A tour must have a summary",
	"imageCover.required":   "A tour must have a cover image",
}

// Schema describes the stored field types used to cast list filters.
var Schema = interfaces.Schema{
	Fields: map[string]interfaces.FieldKind{
		"name":            interfaces.KindString,
		"ratingsAverage":  interfaces.KindNumber,
		"ratingsQuantity": interfaces.KindNumber,
		"price":           interfaces.KindNumber,
		"priceDiscount":   interfaces.KindNumber,
		"duration":        interfaces.KindNumber,
		"maxGroupSize":    interfaces.KindNumber,
		"difficulty":      interfaces.KindString,
		"summary":         interfaces.KindString,
		"description":     interfaces.KindString,
		"imageCover":      interfaces.KindString,
		"images":          interfaces.KindStringArray,
		"createdAt":       interfaces.KindDate,
		"startDates":      interfaces.KindDateArray,
	},
	Unique: []string{"name"},
}

// ApplyDefaults trims the text fields and fills the rating and creation defaults.
func (t *Tour) ApplyDefaults() {
	t.Name = strings.TrimSpace(t.Name)
	t.Difficulty = strings.TrimSpace(t.Difficulty)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)

	if t.RatingsAverage == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
}

func (t *Tour) Validate() error {
	return validation.Struct("Tour", t, messages)
}
