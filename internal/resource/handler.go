// Package resource builds the create, read, list, update and delete handlers
// shared by every collection.
package resource

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/natours/internal/apifeatures"
	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/cache"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/pkg/log"
)

// Handler serves one collection.
type Handler[T any] struct {
	coll         interfaces.Collection[T]
	cache        *cache.GenericCacheService
	paramFilters map[string]string
	beforeCreate func(c *fiber.Ctx, doc *T) error
}

type Option[T any] func(*Handler[T])

// WithCache memoises GetOne responses by id and GetAll pages by query. Creates,
// updates and deletes invalidate them.
func WithCache[T any](svc *cache.GenericCacheService) Option[T] {
	return func(h *Handler[T]) {
		h.cache = svc
	}
}

// WithParamFilter restricts GetAll to documents whose field equals the route param,
// when the param is present.
func WithParamFilter[T any](param, field string) Option[T] {
	return func(h *Handler[T]) {
		h.paramFilters[param] = field
	}
}

// WithBeforeCreate runs hook on the decoded document before it is stored.
func WithBeforeCreate[T any](hook func(c *fiber.Ctx, doc *T) error) Option[T] {
	return func(h *Handler[T]) {
		h.beforeCreate = hook
	}
}

func New[T any](coll interfaces.Collection[T], opts ...Option[T]) *Handler[T] {
	h := &Handler[T]{coll: coll, paramFilters: map[string]string{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler[T]) CreateOne(c *fiber.Ctx) error {
	doc := new(T)
	if err := DecodeBody(c, doc); err != nil {
		return err
	}
	if h.beforeCreate != nil {
		if err := h.beforeCreate(c, doc); err != nil {
			return err
		}
	}
	if err := h.coll.Create(c.UserContext(), doc); err != nil {
		return err
	}
	h.invalidate(c, "")

	out, err := Render(doc, interfaces.Projection{})
	if err != nil {
		return err
	}
	return Success(c, http.StatusCreated, "data", out)
}

func (h *Handler[T]) GetOne(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	var out map[string]interface{}
	if err := h.cache.GetCached(ctx, h.cacheKey(id), &out); err == nil {
		return Success(c, http.StatusOK, "data", out)
	}

	doc, err := h.coll.FindByID(ctx, id)
	if err != nil {
		return NotFoundOr(err)
	}
	out, err = Render(doc, interfaces.Projection{})
	if err != nil {
		return err
	}

	if h.cache.IsEnabled() {
		if err := h.cache.CacheData(ctx, h.cacheKey(id), out); err != nil {
			log.WarnWithContext(ctx, "caching %s %s: %v", h.coll.Name(), id, err)
		}
	}
	return Success(c, http.StatusOK, "data", out)
}

// GetAll runs the list pipeline over the query string. When a page is requested
// past the number of matching documents it fails with 404.
func (h *Handler[T]) GetAll(c *fiber.Ctx) error {
	ctx := c.UserContext()

	base := map[string]interface{}{}
	for param, field := range h.paramFilters {
		if v := c.Params(param); v != "" {
			base[field] = v
		}
	}

	rawQuery := string(c.Request().URI().QueryString())
	request, err := apifeatures.ParseQuery(rawQuery)
	if err != nil {
		return apperror.BadRequest("Invalid query string.")
	}

	features := apifeatures.New(h.coll.Query().Find(base), request).
		Filter().
		Sort().
		Limit().
		Paginate()
	if err := features.Err(); err != nil {
		return err
	}
	if err := h.coll.Schema().CheckExposed(features.Filters(), interfaces.ParseSort(features.SortSpec())); err != nil {
		return err
	}

	var listKey string
	if h.cache.IsEnabled() {
		params := map[string]interface{}{"query": rawQuery}
		for field, v := range base {
			params["param."+field] = v
		}
		listKey = h.cache.GenerateHashKey(h.listPrefix(), params)

		var cached []map[string]interface{}
		if err := h.cache.GetCached(ctx, listKey, &cached); err == nil {
			return List(c, "data", cached)
		}
	}

	if features.HasPage() {
		total, err := h.coll.Count(ctx, features.Query().Spec().Filter)
		if err != nil {
			return err
		}
		if features.Offset() >= total {
			return apperror.New("This page does not exist.", http.StatusNotFound)
		}
	}

	docs, err := features.Exec(ctx)
	if err != nil {
		return err
	}

	projection, err := interfaces.ParseProjection(features.Fields())
	if err != nil {
		return err
	}
	out, err := RenderAll(docs, projection)
	if err != nil {
		return err
	}

	if listKey != "" {
		if err := h.cache.CacheData(ctx, listKey, out); err != nil {
			log.WarnWithContext(ctx, "caching %s list: %v", h.coll.Name(), err)
		}
	}
	return List(c, "data", out)
}

// UpdateOne overlays the JSON body on the stored document and replaces it.
// The document is validated again before it is written.
func (h *Handler[T]) UpdateOne(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	doc, err := h.coll.FindByID(ctx, id)
	if err != nil {
		return NotFoundOr(err)
	}
	stored, ok := interface{}(doc).(interfaces.Document)
	if !ok {
		return fmt.Errorf("%s documents do not carry an id", h.coll.Name())
	}
	oid := stored.GetID()

	if err := DecodeBody(c, doc); err != nil {
		return err
	}
	stored.SetID(oid)

	if err := h.coll.Replace(ctx, oid, doc); err != nil {
		return NotFoundOr(err)
	}
	h.invalidate(c, id)

	out, err := Render(doc, interfaces.Projection{})
	if err != nil {
		return err
	}
	return Success(c, http.StatusOK, "data", out)
}

func (h *Handler[T]) DeleteOne(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.coll.DeleteByID(c.UserContext(), id); err != nil {
		return NotFoundOr(err)
	}
	h.invalidate(c, id)
	return NoContent(c)
}

func (h *Handler[T]) cacheKey(id string) string {
	return h.coll.Name() + ":" + id
}

func (h *Handler[T]) listPrefix() string {
	return h.coll.Name() + ":list"
}

// invalidate drops every cached list page and, when id is set, the cached document.
func (h *Handler[T]) invalidate(c *fiber.Ctx, id string) {
	if !h.cache.IsEnabled() {
		return
	}
	ctx := c.UserContext()
	if id != "" {
		if err := h.cache.InvalidateKey(ctx, h.cacheKey(id)); err != nil {
			log.WarnWithContext(ctx, "invalidating %s %s: %v", h.coll.Name(), id, err)
		}
	}
	if err := h.cache.InvalidatePattern(ctx, h.listPrefix()+":*"); err != nil {
		log.WarnWithContext(ctx, "invalidating %s lists: %v", h.coll.Name(), err)
	}
}
