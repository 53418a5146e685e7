package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/database/interfaces"
	"github.com/qolzam/natours/internal/testutil"
	"github.com/qolzam/natours/internal/types"
	"github.com/qolzam/natours/users/models"
)

func newTestService(t *testing.T) (*Service, *testutil.Collection[models.User]) {
	t.Helper()
	coll := testutil.NewCollection[models.User](models.CollectionName, models.Schema, interfaces.WithScope(models.ActiveScope))
	return NewService(coll, &ServiceConfig{BcryptCost: bcrypt.MinCost}), coll
}

func signup(t *testing.T, s *Service, email string) *models.User {
	t.Helper()
	user, err := s.Signup(context.Background(), &models.SignupRequest{
		Name:            "Jonas",
		Email:           email,
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})
	require.NoError(t, err)
	return user
}

func TestNewServiceDefaults(t *testing.T) {
	s := NewService(testutil.NewCollection[models.User]("users", models.Schema), nil)
	assert.Equal(t, DefaultBcryptCost, s.config.BcryptCost)
}

func TestSignup(t *testing.T) {
	s, coll := newTestService(t)
	ctx := context.Background()

	user := signup(t, s, "  Jonas@Example.COM ")
	assert.Equal(t, "jonas@example.com", user.Email)
	assert.Equal(t, types.RoleUser, user.Role)
	assert.True(t, user.IsActive())
	assert.NotEqual(t, "pass1234", user.Password)
	assert.True(t, s.CheckPassword(user, "pass1234"))
	assert.Equal(t, 1, coll.Len())

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.Signup(ctx, &models.SignupRequest{Name: "J", Email: "jonas@example.com", Password: "pass1234", PasswordConfirm: "pass1234"})
		var dupErr *apperror.DuplicateKeyError
		require.ErrorAs(t, err, &dupErr)
	})

	cases := map[string]struct {
		req  models.SignupRequest
		want []string
	}{
		"mismatched confirmation": {
			req:  models.SignupRequest{Name: "A", Email: "a@b.io", Password: "pass1234", PasswordConfirm: "pass4321"},
			want: []string{"Passwords are not the same."},
		},
		"short password": {
			req:  models.SignupRequest{Name: "A", Email: "a@b.io", Password: "short", PasswordConfirm: "short"},
			want: []string{"Path `password` is shorter than the minimum allowed length (8)."},
		},
		"bad email": {
			req:  models.SignupRequest{Name: "A", Email: "nope", Password: "pass1234", PasswordConfirm: "pass1234"},
			want: []string{"Email format is incorrect!"},
		},
		"empty": {
			req: models.SignupRequest{},
			want: []string{
				"A user must have a name",
				"A user must have an email",
				"A user must have a password",
				"A user must confirm the password",
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := tc.req
			_, err := s.Signup(ctx, &req)
			var valErr *apperror.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tc.want, valErr.Messages())
		})
	}
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	signup(t, s, "user@natours.io")

	user, err := s.Authenticate(ctx, "USER@natours.io", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, "user@natours.io", user.Email)

	_, err = s.Authenticate(ctx, "user@natours.io", "wrong-pass")
	assert.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)

	_, err = s.Authenticate(ctx, "ghost@natours.io", "pass1234")
	assert.ErrorIs(t, err, interfaces.ErrNoDocuments)
}

func TestChangePassword(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	user := signup(t, s, "user@natours.io")
	_, err := s.CreatePasswordResetToken(ctx, user)
	require.NoError(t, err)

	err = s.ChangePassword(ctx, user, &models.PasswordInput{Password: "newpass123", PasswordConfirm: "nope"})
	var valErr *apperror.ValidationError
	require.ErrorAs(t, err, &valErr)

	require.NoError(t, s.ChangePassword(ctx, user, &models.PasswordInput{Password: "newpass123", PasswordConfirm: "newpass123"}))

	stored, err := s.GetByID(ctx, user.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordChangedAt)
	assert.Equal(t, now.Add(-time.Second), stored.PasswordChangedAt.UTC())
	assert.Empty(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)
	assert.True(t, s.CheckPassword(stored, "newpass123"))
	assert.False(t, s.CheckPassword(stored, "pass1234"))

	uc, err := s.LookupUser(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.True(t, uc.ChangedPasswordAfter(now.Add(-time.Minute)))
	assert.False(t, uc.ChangedPasswordAfter(now))
}

func TestPasswordResetToken(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	user := signup(t, s, "user@natours.io")
	token, err := s.CreatePasswordResetToken(ctx, user)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.NotEqual(t, token, user.PasswordResetToken, "only the hash is stored")

	found, err := s.GetByResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.GetByResetToken(ctx, "not-the-token")
	assert.ErrorIs(t, err, interfaces.ErrNoDocuments)
	_, err = s.GetByResetToken(ctx, "")
	assert.ErrorIs(t, err, interfaces.ErrNoDocuments)

	s.now = func() time.Time { return now.Add(11 * time.Minute) }
	_, err = s.GetByResetToken(ctx, token)
	assert.ErrorIs(t, err, interfaces.ErrNoDocuments, "expired")

	s.now = func() time.Time { return now }
	require.NoError(t, s.ClearPasswordResetToken(ctx, user))
	_, err = s.GetByResetToken(ctx, token)
	assert.ErrorIs(t, err, interfaces.ErrNoDocuments)
}

func TestUpdateProfile(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	user := signup(t, s, "user@natours.io")
	signup(t, s, "taken@natours.io")

	updated, err := s.UpdateProfile(ctx, user.ID.Hex(), map[string]interface{}{
		"name":  "Jonas S",
		"email": "NEW@natours.io",
		"role":  types.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jonas S", updated.Name)
	assert.Equal(t, "new@natours.io", updated.Email)
	assert.Equal(t, types.RoleUser, updated.Role)

	_, err = s.UpdateProfile(ctx, user.ID.Hex(), map[string]interface{}{"email": "taken@natours.io"})
	var dupErr *apperror.DuplicateKeyError
	assert.ErrorAs(t, err, &dupErr)

	_, err = s.UpdateProfile(ctx, user.ID.Hex(), map[string]interface{}{"name": 42.0})
	var castErr *apperror.CastError
	assert.ErrorAs(t, err, &castErr)
}

func TestDeactivate(t *testing.T) {
	s, coll := newTestService(t)
	ctx := context.Background()
	user := signup(t, s, "user@natours.io")

	require.NoError(t, s.Deactivate(ctx, user.ID.Hex()))
	assert.Equal(t, 1, coll.Len(), "the document is kept")

	_, err := s.GetByID(ctx, user.ID.Hex())
	assert.ErrorIs(t, err, interfaces.ErrNoDocuments)
	_, err = s.LookupUser(ctx, user.ID.Hex())
	assert.ErrorIs(t, err, interfaces.ErrNoDocuments)

	var castErr *apperror.CastError
	assert.ErrorAs(t, s.Deactivate(ctx, "nope"), &castErr)
}
