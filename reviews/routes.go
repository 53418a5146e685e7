package reviews

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/middleware/authrole"
	"github.com/qolzam/natours/internal/resource"
	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/reviews/handlers"
	"github.com/qolzam/natours/reviews/models"
)

// ReviewsHandlers holds all the handlers this router needs.
type ReviewsHandlers struct {
	ReviewHandler *resource.Handler[models.Review]
}

func NewReviewsHandlers(coll interfaces.Collection[models.Review]) *ReviewsHandlers {
	return &ReviewsHandlers{
		ReviewHandler: resource.New[models.Review](coll,
			resource.WithParamFilter[models.Review](handlers.TourParam, "tour"),
			resource.WithBeforeCreate[models.Review](handlers.SetTourAndUser),
		),
	}
}

// RegisterRoutes mounts the review routes twice: on /reviews and nested under
// /tours/:tourId/reviews, where lists are limited to that tour and new reviews
// belong to it.
func RegisterRoutes(router fiber.Router, handlers *ReviewsHandlers, protect fiber.Handler) {
	h := handlers.ReviewHandler
	authors := authrole.New(types.RoleUser)
	editors := authrole.New(types.RoleUser, types.RoleAdmin)

	for _, prefix := range []string{"/reviews", "/tours/:tourId/reviews"} {
		group := router.Group(prefix)
		group.Get("/", h.GetAll)
		group.Post("/", protect, authors, h.CreateOne)
		group.Get("/:id", h.GetOne)
		group.Patch("/:id", protect, editors, h.UpdateOne)
		group.Delete("/:id", protect, editors, h.DeleteOne)
	}
}
