package auth

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/testing/mocks"
)

func newTestLocalIdentity(kv storage.Store) *LocalIdentity {
	l := NewLocalIdentity(kv, NewTokenManager(DefaultTokenConfig(testSecret)))
	l.cost = bcrypt.MinCost
	return l
}

func TestLocalIdentity_StoresBcryptHash(t *testing.T) {
	ctx := context.Background()
	kv := mocks.NewKVStore()
	l := newTestLocalIdentity(kv)

	_, err := l.SignUp(ctx, "ana@example.com", "secret12")
	require.NoError(t, err)

	raw, ok := kv.Value(storage.KeyLocalAccounts)
	require.True(t, ok)
	assert.NotContains(t, raw, "secret12")
	assert.NotContains(t, raw, `"salt"`)

	var accounts map[string]localAccount
	require.NoError(t, json.Unmarshal([]byte(raw), &accounts))
	acct := accounts["ana@example.com"]

	cost, err := bcrypt.Cost([]byte(acct.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("secret12")))
}

func TestLocalIdentity_SignIn(t *testing.T) {
	ctx := context.Background()
	l := newTestLocalIdentity(mocks.NewKVStore())

	created, err := l.SignUp(ctx, "ana@example.com", "secret12")
	require.NoError(t, err)

	cred, err := l.SignIn(ctx, " ANA@example.com", "secret12")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, cred.UserID)
	assert.NotEmpty(t, cred.IDToken)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ana@example.com", "secret13"},
		{"unknown account", "bob@example.com", "secret12"},
		{"empty password", "ana@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.SignIn(ctx, tt.email, tt.password)
			assert.Equal(t, apperrors.CodeAuthFailed, apperrors.Code(err))
		})
	}
}

func TestLocalIdentity_PasswordTooLong(t *testing.T) {
	l := newTestLocalIdentity(mocks.NewKVStore())

	_, err := l.SignUp(context.Background(), "ana@example.com", strings.Repeat("x", 73))
	assert.Equal(t, apperrors.CodeAuthFailed, apperrors.Code(err))
}

func TestNewLocalIdentity_DefaultCost(t *testing.T) {
	l := NewLocalIdentity(mocks.NewKVStore(), NewTokenManager(DefaultTokenConfig(testSecret)))
	assert.Equal(t, bcrypt.DefaultCost, l.cost)
}
