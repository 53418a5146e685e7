package tours

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/cache"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/middleware/authrole"
	"github.com/qolzam/natours/internal/resource"
	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/tours/models"
)

// ToursHandlers holds all the handlers this router needs.
type ToursHandlers struct {
	TourHandler *resource.Handler[models.Tour]
}

// NewToursHandlers builds the tour handlers. Tour lookups and list pages are cached when
// cacheService is enabled.
func NewToursHandlers(coll interfaces.Collection[models.Tour], cacheService *cache.GenericCacheService) *ToursHandlers {
	return &ToursHandlers{
		TourHandler: resource.New[models.Tour](coll, resource.WithCache[models.Tour](cacheService)),
	}
}

// RegisterRoutes mounts /tours on router. Reads are public; writes need an
// admin or lead guide. The nested /tours/:tourId/reviews routes belong to the
// reviews package.
func RegisterRoutes(router fiber.Router, handlers *ToursHandlers, protect fiber.Handler) {
	restrict := authrole.New(types.RoleAdmin, types.RoleLeadGuide)
	h := handlers.TourHandler

	group := router.Group("/tours")
	group.Get("/", h.GetAll)
	group.Post("/", protect, restrict, h.CreateOne)
	group.Get("/:id", h.GetOne)
	group.Patch("/:id", protect, restrict, h.UpdateOne)
	group.Delete("/:id", protect, restrict, h.DeleteOne)
}
