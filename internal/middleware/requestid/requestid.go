package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"

	"github.com/qolzam/natours/internal/pkg/log"
	"github.com/qolzam/natours/internal/types"
)

// Local is the fiber local holding the id of the current request.
const Local = "requestId"

// MaxLength bounds ids supplied by clients. Longer ones are replaced.
const MaxLength = 128

// New tags every request with an id. A client supplied X-Request-ID is kept,
// otherwise a UUIDv4 is generated. The id is echoed on the response and carried
// on the user context so log.*WithContext calls print it.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(types.HeaderRequestID)
		if id == "" || len(id) > MaxLength {
			id = uuid.Must(uuid.NewV4()).String()
		}

		c.Locals(Local, id)
		c.SetUserContext(log.WithRequestID(c.UserContext(), id))
		c.Set(types.HeaderRequestID, id)
		return c.Next()
	}
}

// FromCtx returns the id assigned by New, or "".
func FromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(Local).(string)
	return id
}
