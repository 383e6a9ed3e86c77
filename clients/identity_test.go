package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	pkgtesting "github.com/autorent/autorent-platform/pkg/testing"
)

func newTestIdentityClient(baseURL string) *IdentityClient {
	config := DefaultIdentityClientConfig("web-key")
	config.BaseURL = baseURL
	config.Timeout = 2 * time.Second
	return NewIdentityClient(config, nil)
}

func TestIdentityClient_SignUp(t *testing.T) {
	api := pkgtesting.NewFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		pkgtesting.WriteJSON(w, http.StatusOK, map[string]string{
			"localId":      "uid-1",
			"email":        "ana@example.com",
			"idToken":      "id-token",
			"refreshToken": "refresh-token",
			"expiresIn":    "3600",
		})
	})

	client := newTestIdentityClient(api.URL)
	cred, err := client.SignUp(context.Background(), "ana@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.UserID != "uid-1" || cred.IDToken != "id-token" {
		t.Errorf("unexpected credential: %+v", cred)
	}
	if cred.ExpiresIn != time.Hour {
		t.Errorf("expected 1h expiry, got %v", cred.ExpiresIn)
	}

	req := api.Requests()[0]
	if req.Method != http.MethodPost || req.Path != "/accounts:signUp" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Query["key"] != "web-key" {
		t.Errorf("expected api key in query, got %q", req.Query["key"])
	}

	var body passwordRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Email != "ana@example.com" || !body.ReturnSecureToken {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestIdentityClient_Endpoints(t *testing.T) {
	api := pkgtesting.NewFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		pkgtesting.WriteJSON(w, http.StatusOK, map[string]string{"localId": "uid-1", "displayName": "Ana"})
	})
	client := newTestIdentityClient(api.URL)
	ctx := context.Background()

	if _, err := client.SignIn(ctx, "ana@example.com", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if err := client.SendPasswordReset(ctx, "ana@example.com"); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
	cred, err := client.UpdateProfile(ctx, "id-token", "Ana")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if cred.DisplayName != "Ana" {
		t.Errorf("expected display name Ana, got %q", cred.DisplayName)
	}

	want := []string{"/accounts:signInWithPassword", "/accounts:sendOobCode", "/accounts:update"}
	reqs := api.Requests()
	if len(reqs) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(reqs))
	}
	for i, path := range want {
		if reqs[i].Path != path {
			t.Errorf("request %d: expected %s, got %s", i, path, reqs[i].Path)
		}
	}

	var oob oobRequest
	if err := json.Unmarshal(reqs[1].Body, &oob); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if oob.RequestType != "PASSWORD_RESET" {
		t.Errorf("expected PASSWORD_RESET, got %q", oob.RequestType)
	}
}

func TestIdentityClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"known code", "EMAIL_EXISTS", "An account with this email already exists"},
		{"code with detail", "WEAK_PASSWORD : Password should be at least 6 characters", "Password should be at least 6 characters"},
		{"unknown code", "OPERATION_NOT_ALLOWED", "OPERATION_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := pkgtesting.NewFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				pkgtesting.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
					"error": map[string]interface{}{"code": 400, "message": tt.message},
				})
			})

			_, err := newTestIdentityClient(api.URL).SignUp(context.Background(), "a@b.c", "pw")
			if err == nil {
				t.Fatal("expected error")
			}
			if apperrors.Code(err) != apperrors.CodeAuthFailed {
				t.Errorf("expected AUTH_FAILED, got %s", apperrors.Code(err))
			}
			if got := apperrors.UserMessage(err); got != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIdentityClient_Unreachable(t *testing.T) {
	client := newTestIdentityClient("http://127.0.0.1:1")

	_, err := client.SignIn(context.Background(), "a@b.c", "pw")
	if apperrors.Code(err) != apperrors.CodeUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %s", apperrors.Code(err))
	}
	if client.Ping(context.Background()) == nil {
		t.Error("expected ping to fail")
	}
}
