package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/logging"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/validation"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// User is the signed-in account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// StateListener is called with the current user, or nil after sign-out.
type StateListener func(*User)

type registration struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6"`
	DisplayName string `validate:"max=100"`
}

type login struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type session struct {
	Credential
	SignedInAt time.Time `json:"signed_in_at"`
}

// Session tracks the signed-in user and persists it across runs.
type Session struct {
	provider IdentityProvider
	kv       storage.Store
	logger   *logging.Logger
	audit    *logging.AuditLogger
	now      func() time.Time

	mu        sync.Mutex
	current   *session
	restored  bool
	listeners map[int]StateListener
	nextID    int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) SessionOption {
	return func(s *Session) { s.logger = l.WithComponent("auth") }
}

// WithAudit records sign-in activity.
func WithAudit(a *logging.AuditLogger) SessionOption {
	return func(s *Session) { s.audit = a }
}

// NewSession creates a session over provider.
func NewSession(provider IdentityProvider, kv storage.Store, opts ...SessionOption) *Session {
	s := &Session{
		provider:  provider,
		kv:        kv,
		logger:    logging.Nop(),
		now:       time.Now,
		listeners: make(map[int]StateListener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account, sets its display name and signs in.
func (s *Session) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	req := registration{Email: strings.TrimSpace(email), Password: password, DisplayName: strings.TrimSpace(displayName)}
	if err := validation.ToAppError(req, "invalid registration"); err != nil {
		return nil, err
	}

	cred, err := s.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		s.audit.LogAuth(ctx, logging.AuditEventRegister, "", req.Email, logging.AuditOutcomeFailure, reasonDetails(err))
		return nil, err
	}
	if req.DisplayName != "" {
		updated, err := s.provider.UpdateProfile(ctx, cred.IDToken, req.DisplayName)
		if err != nil {
			s.logger.WithError(err).Warn("failed to set display name", "user_id", cred.UserID)
		} else {
			cred = mergeCredential(cred, updated)
		}
	}

	s.audit.LogAuth(ctx, logging.AuditEventRegister, cred.UserID, cred.Email, logging.AuditOutcomeSuccess, nil)
	return s.signIn(ctx, cred), nil
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	req := login{Email: strings.TrimSpace(email), Password: password}
	if err := validation.ToAppError(req, "invalid login"); err != nil {
		return nil, err
	}

	cred, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		s.audit.LogAuth(ctx, logging.AuditEventLoginFailed, "", req.Email, logging.AuditOutcomeFailure, reasonDetails(err))
		return nil, err
	}

	s.audit.LogAuth(ctx, logging.AuditEventLogin, cred.UserID, cred.Email, logging.AuditOutcomeSuccess, nil)
	return s.signIn(ctx, cred), nil
}

// Logout clears the session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.restored = true
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if err := s.kv.Remove(ctx, storage.KeyAuthSession); err != nil {
		s.logger.WithError(apperrors.PersistenceUnavailable(err, "remove", storage.KeyAuthSession)).
			Warn("session not removed from storage")
	}
	if prev != nil {
		s.audit.LogAuth(ctx, logging.AuditEventLogout, prev.UserID, prev.Email, logging.AuditOutcomeSuccess, nil)
	}
	notify(listeners, nil)
	return nil
}

// ResetPassword sends a password reset email.
func (s *Session) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.Validation("Please enter your email address first")
	}
	if err := validation.ValidateVar(email, "email"); err != nil {
		return apperrors.Validation("Please enter a valid email address")
	}

	err := s.provider.SendPasswordReset(ctx, email)
	outcome := logging.AuditOutcomeSuccess
	if err != nil {
		outcome = logging.AuditOutcomeFailure
	}
	s.audit.LogAuth(ctx, logging.AuditEventPasswordReset, "", email, outcome, reasonDetails(err))
	return err
}

// CurrentUser returns the signed-in user, restoring a persisted session on first use.
func (s *Session) CurrentUser(ctx context.Context) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreLocked(ctx)
	if s.current == nil {
		return nil
	}
	return userFrom(s.current.Credential)
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	return s.CurrentUser(ctx) != nil
}

// IDToken returns the current identity token, or "".
func (s *Session) IDToken(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreLocked(ctx)
	if s.current == nil {
		return ""
	}
	return s.current.IDToken
}

// OnAuthStateChanged registers fn and calls it immediately with the current user.
// The returned function unregisters it.
func (s *Session) OnAuthStateChanged(ctx context.Context, fn StateListener) (unsubscribe func()) {
	s.mu.Lock()
	s.restoreLocked(ctx)
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	var user *User
	if s.current != nil {
		user = userFrom(s.current.Credential)
	}
	s.mu.Unlock()

	fn(user)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) signIn(ctx context.Context, cred *Credential) *User {
	sess := &session{Credential: *cred, SignedInAt: s.now().UTC()}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyAuthSession, sess); err != nil {
		s.logger.WithError(apperrors.PersistenceUnavailable(err, "write", storage.KeyAuthSession)).
			Warn("session kept in memory only")
	}

	s.mu.Lock()
	s.current = sess
	s.restored = true
	listeners := s.listenersLocked()
	s.mu.Unlock()

	user := userFrom(sess.Credential)
	s.logger.Info("signed in", "user_id", user.ID)
	notify(listeners, user)
	return user
}

func (s *Session) restoreLocked(ctx context.Context) {
	if s.restored {
		return
	}
	s.restored = true

	var sess session
	err := storage.GetJSON(ctx, s.kv, storage.KeyAuthSession, &sess)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.WithError(apperrors.PersistenceUnavailable(err, "read", storage.KeyAuthSession)).
				Warn("ignoring unreadable session")
		}
		return
	}
	if sess.IDToken == "" {
		return
	}
	s.current = &sess
}

func (s *Session) listenersLocked() []StateListener {
	out := make([]StateListener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(listeners []StateListener, user *User) {
	for _, fn := range listeners {
		fn(user)
	}
}

// userFrom prefers the token claims and falls back to the credential fields.
func userFrom(cred Credential) *User {
	u := &User{ID: cred.UserID, Email: cred.Email, DisplayName: cred.DisplayName}
	if claims, err := ParseIDToken(cred.IDToken); err == nil {
		if id := claims.UID(); id != "" {
			u.ID = id
		}
		if claims.Email != "" {
			u.Email = claims.Email
		}
		if claims.Name != "" {
			u.DisplayName = claims.Name
		}
	}
	return u
}

func mergeCredential(base, updated *Credential) *Credential {
	merged := *base
	if updated.IDToken != "" {
		merged.IDToken = updated.IDToken
	}
	if updated.RefreshToken != "" {
		merged.RefreshToken = updated.RefreshToken
	}
	if updated.DisplayName != "" {
		merged.DisplayName = updated.DisplayName
	}
	if updated.ExpiresIn > 0 {
		merged.ExpiresIn = updated.ExpiresIn
	}
	return &merged
}

func reasonDetails(err error) map[string]any {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Details["reason"] != "" {
		return map[string]any{"reason": appErr.Details["reason"]}
	}
	return map[string]any{"reason": apperrors.Code(err)}
}
