package riot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newStatusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != statusEndpoint {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Riot-Token") == "" {
			t.Error("Expected X-Riot-Token header to be set")
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestValidateKey_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantValid bool
		wantErr   bool
	}{
		{"ok", http.StatusOK, true, false},
		{"forbidden", http.StatusForbidden, false, false},
		{"unauthorized", http.StatusUnauthorized, false, false},
		{"server error", http.StatusInternalServerError, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newStatusServer(t, tt.status)
			validator := NewKeyValidator("euw1", WithBaseURL(server.URL))

			valid, err := validator.ValidateKey(context.Background(), "RGAPI-test-key")
			if valid != tt.wantValid {
				t.Errorf("valid = %v, want %v", valid, tt.wantValid)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateKey_ServerErrorIsAPIError(t *testing.T) {
	server := newStatusServer(t, http.StatusServiceUnavailable)
	validator := NewKeyValidator("euw1", WithBaseURL(server.URL))

	_, err := validator.ValidateKey(context.Background(), "RGAPI-test-key")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}

func TestValidateKey_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	validator := NewKeyValidator("euw1",
		WithBaseURL(server.URL),
		WithTimeout(50*time.Millisecond),
	)

	valid, err := validator.ValidateKey(context.Background(), "RGAPI-test-key")
	if err == nil {
		t.Error("Expected timeout error to be returned")
	}
	if valid {
		t.Error("Expected key to not be valid on timeout")
	}
}

func TestValidateKey_EmptyKey(t *testing.T) {
	validator := NewKeyValidator("euw1")

	valid, err := validator.ValidateKey(context.Background(), "")
	if err == nil {
		t.Error("Expected error for empty key")
	}
	if valid {
		t.Error("Expected empty key to be invalid")
	}
}

func TestValidateKey_ContextCancelled(t *testing.T) {
	server := newStatusServer(t, http.StatusOK)
	validator := NewKeyValidator("euw1", WithBaseURL(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	valid, err := validator.ValidateKey(ctx, "RGAPI-test-key")
	if err == nil {
		t.Error("Expected context cancelled error")
	}
	if valid {
		t.Error("Expected key to not be valid on cancelled context")
	}
}

func TestNewKeyValidator_PlatformHost(t *testing.T) {
	v := NewKeyValidator(" EUW1 ")
	if v.baseURL != "https://euw1.api.riotgames.com" {
		t.Errorf("baseURL = %s", v.baseURL)
	}
}
