package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/testing/mocks"
)

func newLocalSession(kv storage.Store) *Session {
	identity := NewLocalIdentity(kv, NewTokenManager(DefaultTokenConfig(testSecret)))
	return NewSession(identity, kv)
}

func TestSession_RegisterAndRestore(t *testing.T) {
	ctx := context.Background()
	kv := mocks.NewKVStore()
	s := newLocalSession(kv)

	user, err := s.Register(ctx, " Ana@Example.com ", "secret12", "Ana Pop")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "Ana Pop", user.DisplayName)
	assert.NotEmpty(t, user.ID)
	assert.True(t, s.IsAuthenticated(ctx))

	restored := newLocalSession(kv).CurrentUser(ctx)
	require.NotNil(t, restored, "session survives a restart")
	assert.Equal(t, user, restored)
}

func TestSession_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	s := newLocalSession(mocks.NewKVStore())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "secret12"},
		{"invalid email", "not-an-email", "secret12"},
		{"short password", "a@b.co", "123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.email, tt.password, "")
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
		})
	}
}

func TestSession_RegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newLocalSession(mocks.NewKVStore())

	_, err := s.Register(ctx, "a@b.co", "secret12", "")
	require.NoError(t, err)
	_, err = s.Register(ctx, "A@B.co", "secret34", "")
	assert.Equal(t, apperrors.CodeAuthFailed, apperrors.Code(err))
	assert.Equal(t, "An account with this email already exists", apperrors.UserMessage(err))
}

func TestSession_LoginLogout(t *testing.T) {
	ctx := context.Background()
	kv := mocks.NewKVStore()
	s := newLocalSession(kv)
	_, err := s.Register(ctx, "a@b.co", "secret12", "")
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.CurrentUser(ctx))
	_, ok := kv.Value(storage.KeyAuthSession)
	assert.False(t, ok)

	_, err = s.Login(ctx, "a@b.co", "wrong-pass")
	assert.Equal(t, apperrors.CodeAuthFailed, apperrors.Code(err))
	assert.Nil(t, s.CurrentUser(ctx))

	user, err := s.Login(ctx, "a@b.co", "secret12")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", user.Email)
	assert.NotEmpty(t, s.IDToken(ctx))
}

func TestSession_ResetPassword(t *testing.T) {
	ctx := context.Background()
	s := newLocalSession(mocks.NewKVStore())
	_, err := s.Register(ctx, "a@b.co", "secret12", "")
	require.NoError(t, err)

	assert.NoError(t, s.ResetPassword(ctx, "a@b.co"))
	assert.True(t, apperrors.IsValidation(s.ResetPassword(ctx, "")))
	assert.True(t, apperrors.IsValidation(s.ResetPassword(ctx, "nope")))
	assert.Equal(t, apperrors.CodeAuthFailed, apperrors.Code(s.ResetPassword(ctx, "x@y.co")))
}

func TestSession_OnAuthStateChanged(t *testing.T) {
	ctx := context.Background()
	s := newLocalSession(mocks.NewKVStore())

	var seen []*User
	unsubscribe := s.OnAuthStateChanged(ctx, func(u *User) { seen = append(seen, u) })
	require.Len(t, seen, 1, "listener is called immediately")
	assert.Nil(t, seen[0])

	_, err := s.Register(ctx, "a@b.co", "secret12", "")
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.NotNil(t, seen[1])
	assert.Equal(t, "a@b.co", seen[1].Email)

	require.NoError(t, s.Logout(ctx))
	require.Len(t, seen, 3)
	assert.Nil(t, seen[2])

	unsubscribe()
	unsubscribe()
	_, err = s.Login(ctx, "a@b.co", "secret12")
	require.NoError(t, err)
	assert.Len(t, seen, 3, "unsubscribed listeners are not called")
}

func TestSession_PersistenceFailureKeepsMemorySession(t *testing.T) {
	ctx := context.Background()
	identityKV := mocks.NewKVStore()
	sessionKV := mocks.NewKVStore()
	sessionKV.SetErr = errors.New("read-only")

	identity := NewLocalIdentity(identityKV, NewTokenManager(DefaultTokenConfig(testSecret)))
	s := NewSession(identity, sessionKV)

	_, err := s.Register(ctx, "a@b.co", "secret12", "")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated(ctx))
}

type failingProvider struct {
	IdentityProvider
	updateErr error
}

func (f failingProvider) UpdateProfile(context.Context, string, string) (*Credential, error) {
	return nil, f.updateErr
}

func TestSession_RegisterProfileUpdateFailure(t *testing.T) {
	ctx := context.Background()
	kv := mocks.NewKVStore()
	local := NewLocalIdentity(kv, NewTokenManager(DefaultTokenConfig(testSecret)))
	s := NewSession(failingProvider{IdentityProvider: local, updateErr: errors.New("boom")}, kv)

	user, err := s.Register(ctx, "a@b.co", "secret12", "Ana")
	require.NoError(t, err, "a failed display name update does not fail registration")
	assert.Empty(t, user.DisplayName)
}
