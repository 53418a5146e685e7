package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/validation"
)

const CollectionName = "reviews"

// Review is a user's rating of a tour.
type Review struct {
	interfaces.Base `bson:",inline"`
	Review          string             `bson:"review" json:"review" validate:"required"`
	Rating          float64            `bson:"rating,omitempty" json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	Tour            primitive.ObjectID `bson:"tour" json:"tour" validate:"required"`
	User            primitive.ObjectID `bson:"user" json:"user" validate:"required"`
}

var messages = validation.Messages{
	"review.required": "Review cannot be empty.",
	"rating.min":      "Rating must be above 1.0",
	"rating.max":      "Rating must be below 5.0",
	"tour.required":   "Review must belong to a tour.",
	"user.required":   "Review must belong to a user.",
}

var Schema = interfaces.Schema{
	Fields: map[string]interfaces.FieldKind{
		"review":    interfaces.KindString,
		"rating":    interfaces.KindNumber,
		"createdAt": interfaces.KindDate,
		"tour":      interfaces.KindObjectID,
		"user":      interfaces.KindObjectID,
	},
}

func (r *Review) ApplyDefaults() {
	r.Review = strings.TrimSpace(r.Review)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

func (r *Review) Validate() error {
	return validation.Struct("Review", r, messages)
}
