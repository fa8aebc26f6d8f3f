package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstop/internal/client"
	"nextstop/internal/entities"
)

type fakeUserLookup struct {
	profile entities.AdminProfile
	err     error
}

func (l fakeUserLookup) FetchCurrentUser(context.Context) (entities.AdminProfile, error) {
	return l.profile, l.err
}

// tokenUsers answers lookups from a token table and refuses other tokens.
func tokenUsers(users map[string]entities.AdminProfile) UserLookupFunc {
	return func(token string) UserLookup {
		p, ok := users[token]
		if !ok {
			return fakeUserLookup{err: &client.Error{Op: "FetchCurrentUser", Kind: client.KindStatus, StatusCode: http.StatusUnauthorized}}
		}
		return fakeUserLookup{profile: p}
	}
}

func TestSignInUsesUserFromUserService(t *testing.T) {
	roles := []string{"USER"}
	svc := NewSessionService(tokenUsers(map[string]entities.AdminProfile{
		"tok-42": {ID: 42, FullName: "Nimal Perera", Email: "nimal@example.com", Roles: roles},
	}), discardLogger())

	sess, err := svc.SignIn(context.Background(), "Bearer tok-42")
	require.NoError(t, err)
	assert.Equal(t, "tok-42", sess.Token)
	assert.Equal(t, int64(42), sess.User.ID)
	assert.Equal(t, "Nimal Perera", sess.User.FullName)
	assert.Equal(t, []string{"USER"}, sess.User.Roles)

	roles[0] = "ADMIN"
	assert.Equal(t, []string{"USER"}, sess.User.Roles)
}

func TestSignInRejectsUnknownToken(t *testing.T) {
	svc := NewSessionService(tokenUsers(nil), discardLogger())

	_, err := svc.SignIn(context.Background(), "made-up")
	assert.ErrorIs(t, err, ErrTokenRejected)

	_, err = svc.SignIn(context.Background(), "  ")
	var ve ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSignInRejectsProfileWithoutID(t *testing.T) {
	svc := NewSessionService(func(string) UserLookup { return fakeUserLookup{} }, discardLogger())
	_, err := svc.SignIn(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrTokenRejected)
}

func TestSignInPassesThroughBackendOutage(t *testing.T) {
	outage := &client.Error{Op: "FetchCurrentUser", Kind: client.KindStatus, StatusCode: http.StatusServiceUnavailable}
	svc := NewSessionService(func(string) UserLookup { return fakeUserLookup{err: outage} }, discardLogger())

	_, err := svc.SignIn(context.Background(), "tok")
	assert.NotErrorIs(t, err, ErrTokenRejected)
	var ce *client.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusServiceUnavailable, ce.StatusCode)
}
