package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/autorent/autorent-platform/pkg/auth"
	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	pkghttp "github.com/autorent/autorent-platform/pkg/http"
	"github.com/autorent/autorent-platform/pkg/logging"
)

// DefaultIdentityURL is the Identity Toolkit v1 base URL.
const DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"

// identityMessages maps Identity Toolkit error codes to user-facing text.
var identityMessages = map[string]string{
	"EMAIL_EXISTS":                "An account with this email already exists",
	"EMAIL_NOT_FOUND":             "No account found with this email",
	"INVALID_PASSWORD":            "Incorrect password",
	"INVALID_LOGIN_CREDENTIALS":   "Invalid email or password",
	"INVALID_EMAIL":               "The email address is invalid",
	"USER_DISABLED":               "This account has been disabled",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many attempts, try again later",
	"WEAK_PASSWORD":               "Password should be at least 6 characters",
	"MISSING_PASSWORD":            "Password is required",
	"INVALID_ID_TOKEN":            "Your session has expired, please sign in again",
}

// IdentityClientConfig holds configuration for the identity client.
type IdentityClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// DefaultIdentityClientConfig returns sensible defaults.
func DefaultIdentityClientConfig(apiKey string) IdentityClientConfig {
	return IdentityClientConfig{
		BaseURL: DefaultIdentityURL,
		APIKey:  apiKey,
		Timeout: 10 * time.Second,
	}
}

// IdentityClient talks to an Identity Toolkit compatible account API.
type IdentityClient struct {
	client *pkghttp.ResilientClient
	apiKey string
	logger *logging.Logger
}

var _ auth.IdentityProvider = (*IdentityClient)(nil)

// NewIdentityClient creates an identity client.
func NewIdentityClient(config IdentityClientConfig, logger *logging.Logger) *IdentityClient {
	rc := pkghttp.DefaultResilientClientConfig("identity", config.BaseURL)
	rc.Timeout = config.Timeout
	// Account calls are not idempotent.
	rc.RetryConfig.MaxRetries = 0

	if logger == nil {
		logger = logging.Nop()
	}
	return &IdentityClient{
		client: pkghttp.NewResilientClient(rc),
		apiKey: config.APIKey,
		logger: logger.WithComponent("identity"),
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

type updateRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r accountResponse) credential() *auth.Credential {
	cred := &auth.Credential{
		UserID:       r.LocalID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
	}
	if secs, err := strconv.Atoi(r.ExpiresIn); err == nil {
		cred.ExpiresIn = time.Duration(secs) * time.Second
	}
	return cred
}

// SignUp creates an account and returns its credential.
func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (*auth.Credential, error) {
	var resp accountResponse
	if err := c.post(ctx, "accounts:signUp", passwordRequest{email, password, true}, &resp); err != nil {
		return nil, err
	}
	return resp.credential(), nil
}

// SignIn exchanges an email and password for a credential.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (*auth.Credential, error) {
	var resp accountResponse
	if err := c.post(ctx, "accounts:signInWithPassword", passwordRequest{email, password, true}, &resp); err != nil {
		return nil, err
	}
	return resp.credential(), nil
}

// SendPasswordReset sends a password reset email.
func (c *IdentityClient) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "accounts:sendOobCode", oobRequest{RequestType: "PASSWORD_RESET", Email: email}, nil)
}

// UpdateProfile sets the display name of the signed-in account.
func (c *IdentityClient) UpdateProfile(ctx context.Context, idToken, displayName string) (*auth.Credential, error) {
	var resp accountResponse
	if err := c.post(ctx, "accounts:update", updateRequest{idToken, displayName, true}, &resp); err != nil {
		return nil, err
	}
	return resp.credential(), nil
}

// Ping reports whether the identity endpoint is reachable.
// Any HTTP response counts, even a rejection of the empty request.
func (c *IdentityClient) Ping(ctx context.Context) error {
	err := c.client.GetJSON(ctx, "/projects", c.query(), &json.RawMessage{})
	if err != nil && pkghttp.StatusCode(err) == 0 {
		return err
	}
	return nil
}

func (c *IdentityClient) query() url.Values {
	return url.Values{"key": {c.apiKey}}
}

func (c *IdentityClient) post(ctx context.Context, method string, body, result interface{}) error {
	err := c.client.PostJSON(ctx, "/"+method, c.query(), body, result)
	if err == nil {
		return nil
	}

	c.logger.Warn("identity request failed", "method", method, "error", err.Error())
	return identityError(err)
}

// identityError maps an API rejection to AUTH_FAILED with a readable message.
func identityError(err error) error {
	var httpErr *pkghttp.HTTPError
	if !errors.As(err, &httpErr) {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "Identity service unavailable")
	}

	var body errorResponse
	_ = json.Unmarshal(httpErr.Body, &body)

	// Messages look like "WEAK_PASSWORD : Password should be at least 6 characters".
	code := strings.TrimSpace(strings.SplitN(body.Error.Message, ":", 2)[0])
	message, ok := identityMessages[code]
	if !ok {
		message = "Authentication failed"
		if code != "" {
			message = code
		}
	}
	return apperrors.AuthFailed(err, message).WithDetails(map[string]string{"reason": code})
}
