package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserContext_ChangedPasswordAfter(t *testing.T) {
	iat := time.Unix(1_700_000_000, 0)

	assert.False(t, UserContext{}.ChangedPasswordAfter(iat))

	before := iat.Add(-time.Hour)
	assert.False(t, UserContext{PasswordChangedAt: &before}.ChangedPasswordAfter(iat))

	sameSecond := iat.Add(500 * time.Millisecond)
	assert.False(t, UserContext{PasswordChangedAt: &sameSecond}.ChangedPasswordAfter(iat))

	after := iat.Add(time.Minute)
	assert.True(t, UserContext{PasswordChangedAt: &after}.ChangedPasswordAfter(iat))
}

func TestUserContext_HasRole(t *testing.T) {
	u := UserContext{Role: RoleLeadGuide}
	assert.True(t, u.HasRole(RoleAdmin, RoleLeadGuide))
	assert.False(t, u.HasRole(RoleUser))
	assert.False(t, u.HasRole())
}
