package server

import (
	"context"
	"fmt"

	"github.com/qolzam/natours/auth"
	authhandlers "github.com/qolzam/natours/auth/handlers"
	"github.com/qolzam/natours/internal/auth/tokens"
	"github.com/qolzam/natours/internal/cache"
	"github.com/qolzam/natours/internal/database/factory"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/middleware/authjwt"
	"github.com/qolzam/natours/internal/middleware/metrics"
	platformconfig "github.com/qolzam/natours/internal/platform/config"
	platformemail "github.com/qolzam/natours/internal/platform/email"
	"github.com/qolzam/natours/reviews"
	reviewmodels "github.com/qolzam/natours/reviews/models"
	"github.com/qolzam/natours/tours"
	tourmodels "github.com/qolzam/natours/tours/models"
	"github.com/qolzam/natours/users"
	userhandlers "github.com/qolzam/natours/users/handlers"
	usermodels "github.com/qolzam/natours/users/models"
	userservices "github.com/qolzam/natours/users/services"
)

// Collections are the stores behind the API.
type Collections struct {
	Tours   interfaces.Collection[tourmodels.Tour]
	Reviews interfaces.Collection[reviewmodels.Review]
	Users   interfaces.Collection[usermodels.User]
}

// OpenCollections binds every collection on backend. Users are scoped to active accounts.
func OpenCollections(backend *factory.Backend) (*Collections, error) {
	toursColl, err := factory.NewCollection[tourmodels.Tour](backend, tourmodels.CollectionName, tourmodels.Schema)
	if err != nil {
		return nil, err
	}
	reviewsColl, err := factory.NewCollection[reviewmodels.Review](backend, reviewmodels.CollectionName, reviewmodels.Schema)
	if err != nil {
		return nil, err
	}
	usersColl, err := factory.NewCollection[usermodels.User](backend, usermodels.CollectionName, usermodels.Schema,
		interfaces.WithScope(usermodels.ActiveScope))
	if err != nil {
		return nil, err
	}
	return &Collections{Tours: toursColl, Reviews: reviewsColl, Users: usersColl}, nil
}

// EnsureIndexes creates the tables and unique indexes of every collection.
func (c *Collections) EnsureIndexes(ctx context.Context) error {
	for _, ensure := range []func(context.Context) error{
		c.Tours.EnsureIndexes,
		c.Reviews.EnsureIndexes,
		c.Users.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("failed to ensure indexes: %w", err)
		}
	}
	return nil
}

// Wiring carries the shared services handed to NewDeps.
type Wiring struct {
	Config      *platformconfig.Config
	Collections *Collections
	Cache       *cache.GenericCacheService
	EmailSender platformemail.Sender
	Metrics     *metrics.Metrics
	BcryptCost  int
}

// NewDeps builds the services and handlers of every route group.
func NewDeps(w Wiring) Deps {
	cfg := w.Config
	issuer := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	userService := userservices.NewService(w.Collections.Users, &userservices.ServiceConfig{BcryptCost: w.BcryptCost})

	authHandler := authhandlers.NewAuthHandler(userService, issuer, w.EmailSender, authhandlers.HandlerConfig{
		CookieExpiresIn:  cfg.JWT.CookieExpiresIn,
		SecureCookie:     !cfg.IsDevelopment(),
		PasswordMinScore: cfg.Security.PasswordMinScore,
	})

	return Deps{
		Config:  cfg,
		Tours:   tours.NewToursHandlers(w.Collections.Tours, w.Cache),
		Reviews: reviews.NewReviewsHandlers(w.Collections.Reviews),
		Users:   &users.UsersHandlers{UserHandler: userhandlers.NewUserHandler(userService, w.Collections.Users)},
		Auth:    &auth.AuthHandlers{AuthHandler: authHandler},
		Protect: authjwt.New(authjwt.Config{Issuer: issuer, Users: userService}),
		Metrics: w.Metrics,
		Cache:   w.Cache,
	}
}
