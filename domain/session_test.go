package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionClearKeepsID(t *testing.T) {
	sess := NewSession("sid")
	sess.Authenticated = true
	sess.IsRegistered = true
	sess.AccessToken = "tok"
	sess.UserData = map[string]any{"email": "a@b.com"}
	sess.OAuthTransaction = &OAuthTransaction{State: "s"}

	sess.Clear()

	assert.Equal(t, "sid", sess.ID)
	assert.False(t, sess.Authenticated)
	assert.False(t, sess.IsRegistered)
	assert.Empty(t, sess.AccessToken)
	assert.Nil(t, sess.UserData)
	assert.Nil(t, sess.OAuthTransaction)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()

	sess := NewSession("sid")
	assert.False(t, sess.Expired(time.Hour, now), "anonymous sessions never expire")

	sess.Authenticated = true
	sess.CreatedAt = now.Add(-30 * time.Minute)
	assert.False(t, sess.Expired(time.Hour, now))

	sess.CreatedAt = now.Add(-time.Hour)
	assert.True(t, sess.Expired(time.Hour, now))
}

func TestUserTypeTable(t *testing.T) {
	assert.Equal(t, "individuals", UserTypeIndividual.Table())
	assert.Equal(t, "organizations", UserTypeOrganization.Table())
}

func TestUserTypeValid(t *testing.T) {
	assert.True(t, UserTypeIndividual.Valid())
	assert.True(t, UserTypeOrganization.Valid())
	assert.False(t, UserTypeNone.Valid())
	assert.False(t, UserType("admin").Valid())
}
