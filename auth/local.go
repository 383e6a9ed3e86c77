package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/storage"
)

// LocalIdentity is an offline IdentityProvider for demos and tests.
// Accounts are kept in the key-value store and tokens are signed locally.
type LocalIdentity struct {
	kv     storage.Store
	tokens *TokenManager
	cost   int

	mu sync.Mutex
}

var _ IdentityProvider = (*LocalIdentity)(nil)

type localAccount struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name,omitempty"`
	PasswordHash string `json:"password_hash"`
}

// NewLocalIdentity creates a local identity provider.
func NewLocalIdentity(kv storage.Store, tokens *TokenManager) *LocalIdentity {
	return &LocalIdentity{kv: kv, tokens: tokens, cost: bcrypt.DefaultCost}
}

// SignUp creates a local account.
func (l *LocalIdentity) SignUp(ctx context.Context, email, password string) (*Credential, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	key := normalizeEmail(email)
	if _, exists := accounts[key]; exists {
		return nil, authFailed("EMAIL_EXISTS", "An account with this email already exists")
	}
	if len(password) < MinPasswordLength {
		return nil, authFailed("WEAK_PASSWORD", "Password should be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, authFailed("WEAK_PASSWORD", "Password should be at most 72 characters")
	}
	if err != nil {
		return nil, apperrors.InternalWrap(err, "failed to create account")
	}
	acct := localAccount{
		ID:           uuid.NewString(),
		Email:        key,
		PasswordHash: string(hash),
	}
	accounts[key] = acct
	if err := l.save(ctx, accounts); err != nil {
		return nil, err
	}
	return l.credential(acct)
}

// SignIn checks the password of a local account.
func (l *LocalIdentity) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	acct, ok := accounts[normalizeEmail(email)]
	if !ok || bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, authFailed("INVALID_LOGIN_CREDENTIALS", "Invalid email or password")
	}
	return l.credential(acct)
}

// SendPasswordReset succeeds for known accounts. No email is sent.
func (l *LocalIdentity) SendPasswordReset(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := accounts[normalizeEmail(email)]; !ok {
		return authFailed("EMAIL_NOT_FOUND", "No account found with this email")
	}
	return nil
}

// UpdateProfile sets the display name of the account the token belongs to.
func (l *LocalIdentity) UpdateProfile(ctx context.Context, idToken, displayName string) (*Credential, error) {
	claims, err := l.tokens.Validate(idToken)
	if err != nil {
		return nil, apperrors.AuthFailed(err, "Your session has expired, please sign in again")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	acct, ok := accounts[normalizeEmail(claims.Email)]
	if !ok || acct.ID != claims.UID() {
		return nil, authFailed("USER_NOT_FOUND", "No account found with this email")
	}
	acct.DisplayName = displayName
	accounts[acct.Email] = acct
	if err := l.save(ctx, accounts); err != nil {
		return nil, err
	}
	return l.credential(acct)
}

func (l *LocalIdentity) credential(acct localAccount) (*Credential, error) {
	token, err := l.tokens.Generate(acct.ID, acct.Email, acct.DisplayName)
	if err != nil {
		return nil, apperrors.InternalWrap(err, "failed to issue token")
	}
	return &Credential{
		UserID:      acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		IDToken:     token,
		ExpiresIn:   l.tokens.Expiry(),
	}, nil
}

func (l *LocalIdentity) load(ctx context.Context) (map[string]localAccount, error) {
	accounts := make(map[string]localAccount)
	err := storage.GetJSON(ctx, l.kv, storage.KeyLocalAccounts, &accounts)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, apperrors.PersistenceUnavailable(err, "read", storage.KeyLocalAccounts)
	}
	return accounts, nil
}

func (l *LocalIdentity) save(ctx context.Context, accounts map[string]localAccount) error {
	if err := storage.SetJSON(ctx, l.kv, storage.KeyLocalAccounts, accounts); err != nil {
		return apperrors.PersistenceUnavailable(err, "write", storage.KeyLocalAccounts)
	}
	return nil
}

func authFailed(reason, message string) error {
	return apperrors.AuthFailed(nil, message).WithDetails(map[string]string{"reason": reason})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
