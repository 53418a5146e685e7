package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/middleware/authjwt"
	"github.com/qolzam/natours/reviews/models"
)

// TourParam is the route param naming the tour on nested review routes.
const TourParam = "tourId"

// SetTourAndUser fills the review's tour from the nested route and its author
// from the authenticated user, unless the body already names them.
func SetTourAndUser(c *fiber.Ctx, review *models.Review) error {
	if review.Tour.IsZero() {
		if tourID := c.Params(TourParam); tourID != "" {
			oid, err := interfaces.ParseObjectID(tourID)
			if err != nil {
				return err
			}
			review.Tour = oid
		}
	}

	if review.User.IsZero() {
		if user, ok := authjwt.CurrentUser(c); ok {
			oid, err := interfaces.ParseObjectID(user.UserID)
			if err != nil {
				return err
			}
			review.User = oid
		}
	}
	return nil
}
