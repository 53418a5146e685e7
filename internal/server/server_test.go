package server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/qolzam/natours/internal/cache"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/middleware/metrics"
	platformconfig "github.com/qolzam/natours/internal/platform/config"
	"github.com/qolzam/natours/internal/testutil"
	"github.com/qolzam/natours/internal/types"
	reviewmodels "github.com/qolzam/natours/reviews/models"
	tourmodels "github.com/qolzam/natours/tours/models"
	usermodels "github.com/qolzam/natours/users/models"
)

type serverFixture struct {
	helper  *testutil.HTTPHelper
	users   *testutil.Collection[usermodels.User]
	tours   *testutil.Collection[tourmodels.Tour]
	email   *testutil.FakeEmailSender
	metrics *metrics.Metrics
}

func setupServer(t *testing.T, env string) *serverFixture {
	t.Helper()

	cfg, err := platformconfig.LoadFromMap(map[string]string{
		"JWT_SECRET": testutil.TestJWTSecret,
		"APP_ENV":    env,
	})
	require.NoError(t, err)

	colls := &Collections{
		Tours:   testutil.NewCollection[tourmodels.Tour](tourmodels.CollectionName, tourmodels.Schema),
		Reviews: testutil.NewCollection[reviewmodels.Review](reviewmodels.CollectionName, reviewmodels.Schema),
		Users: testutil.NewCollection[usermodels.User](usermodels.CollectionName, usermodels.Schema,
			interfaces.WithScope(usermodels.ActiveScope)),
	}
	require.NoError(t, colls.EnsureIndexes(context.Background()))

	cacheService := cache.NewGenericCacheService(cache.NewMemoryCache(1<<20, time.Minute), cfg.Cache)
	sender := testutil.NewFakeEmailSender()
	m := metrics.New()

	app := New(NewDeps(Wiring{
		Config:      cfg,
		Collections: colls,
		Cache:       cacheService,
		EmailSender: sender,
		Metrics:     m,
		BcryptCost:  bcrypt.MinCost,
	}))

	return &serverFixture{
		helper:  testutil.NewHTTPHelper(t, app),
		users:   colls.Users.(*testutil.Collection[usermodels.User]),
		tours:   colls.Tours.(*testutil.Collection[tourmodels.Tour]),
		email:   sender,
		metrics: m,
	}
}

func (f *serverFixture) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	resp, body := f.helper.NewRequest(http.MethodPost, "/api/v1/users/signup", map[string]interface{}{
		"name": "Traveller", "email": email, "password": "pass1234", "passwordConfirm": "pass1234",
	}).SendJSON()
	require.Equal(t, http.StatusCreated, resp.StatusCode, "%v", body)
	user := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	return body["token"].(string), user["_id"].(string)
}

func (f *serverFixture) promote(t *testing.T, id, role string) {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(id)
	require.NoError(t, err)
	require.NoError(t, f.users.UpdateFields(context.Background(), oid, map[string]interface{}{"role": role}))
}

func TestUnknownRoute(t *testing.T) {
	f := setupServer(t, platformconfig.EnvProduction)

	resp, body := f.helper.NewRequest(http.MethodGet, "/api/v1/nowhere?x=1", nil).SendJSON()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Can't find /api/v1/nowhere?x=1 on this server!", body["message"])
	assert.NotContains(t, body, "stack")
}

func TestDevelopmentMode(t *testing.T) {
	f := setupServer(t, platformconfig.EnvDevelopment)

	resp := f.helper.NewRequest(http.MethodGet, "/", nil).Send()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "API is running...", string(raw))

	resp, body := f.helper.NewRequest(http.MethodGet, "/api/v1/nowhere", nil).SendJSON()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "error")
	assert.Contains(t, body, "stack")
}

func TestRootIsHiddenInProduction(t *testing.T) {
	f := setupServer(t, platformconfig.EnvProduction)
	resp := f.helper.NewRequest(http.MethodGet, "/", nil).Send()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestID(t *testing.T) {
	f := setupServer(t, platformconfig.EnvProduction)

	resp := f.helper.NewRequest(http.MethodGet, "/api/v1/tours", nil).Send()
	assert.NotEmpty(t, resp.Header.Get(types.HeaderRequestID))

	resp = f.helper.NewRequest(http.MethodGet, "/api/v1/tours", nil).WithHeader(types.HeaderRequestID, "req-42").Send()
	assert.Equal(t, "req-42", resp.Header.Get(types.HeaderRequestID))
}

func TestTourAndReviewFlow(t *testing.T) {
	f := setupServer(t, platformconfig.EnvProduction)

	adminToken, adminID := f.signup(t, "admin@natours.io")
	f.promote(t, adminID, types.RoleAdmin)
	userToken, userID := f.signup(t, "user@natours.io")

	resp, body := f.helper.NewRequest(http.MethodPost, "/api/v1/tours", map[string]interface{}{
		"name": "The Park Camper", "price": 1497, "duration": 10, "maxGroupSize": 15,
		"difficulty": "medium", "summary": "Breathing in Nature in America's most spectacular National Parks",
		"imageCover": "tour-5-cover.jpg", "startDates": []string{"2021-08-05T09:00:00.000Z"},
	}).WithJWTAuth(adminToken).SendJSON()
	require.Equal(t, http.StatusCreated, resp.StatusCode, "%v", body)
	tourID := testutil.Data(t, body).(map[string]interface{})["_id"].(string)

	resp, body = f.helper.NewRequest(http.MethodPost, "/api/v1/tours/"+tourID+"/reviews",
		map[string]interface{}{"review": "Loved it", "rating": 5}).WithJWTAuth(userToken).SendJSON()
	require.Equal(t, http.StatusCreated, resp.StatusCode, "%v", body)
	review := testutil.Data(t, body).(map[string]interface{})
	assert.Equal(t, tourID, review["tour"])
	assert.Equal(t, userID, review["user"])

	_, body = f.helper.NewRequest(http.MethodGet, "/api/v1/tours/"+tourID+"/reviews", nil).SendJSON()
	assert.Equal(t, 1.0, body["results"])

	_, body = f.helper.NewRequest(http.MethodGet, "/api/v1/tours?startDates[gte]=2021-08-01&fields=name", nil).SendJSON()
	assert.Equal(t, 1.0, body["results"])

	resp = f.helper.NewRequest(http.MethodPatch, "/api/v1/users/update-my-password", map[string]interface{}{
		"currentPassword": "pass1234", "newPassword": "newpass123", "newPasswordConfirm": "newpass123",
	}).WithJWTAuth(userToken).Send()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "auth routes are registered before /users/:id")

	resp = f.helper.NewRequest(http.MethodGet, "/api/v1/users/me", nil).WithJWTAuth(adminToken).Send()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupServer(t, platformconfig.EnvProduction)
	f.helper.NewRequest(http.MethodGet, "/api/v1/tours", nil).Send()
	f.helper.NewRequest(http.MethodGet, "/api/v1/tours", nil).Send()
	f.helper.NewRequest(http.MethodGet, "/api/v1/tours/bad-id", nil).Send()

	resp := f.helper.NewRequest(http.MethodGet, "/metrics", nil).Send()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(text, "natours_http_requests_total"))
	assert.True(t, strings.Contains(text, `natours_errors_total{kind="cast",status="400"} 1`), text)
	assert.True(t, strings.Contains(text, "natours_cache_hits_total 1"), text)
	assert.True(t, strings.Contains(text, "natours_cache_misses_total"), text)
}
