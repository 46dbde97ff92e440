package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openfabric/tokenbridge/internal/config"
)

func newOAuth2TestExchanger(t *testing.T, endpoint string) *OAuth2Exchanger {
	t.Helper()
	ex, err := NewOAuth2Exchanger("fabric", OAuth2Config{
		Endpoint:     endpoint,
		ClientID:     "client",
		ClientSecret: "secret",
		Audience:     "downstream",
	})
	if err != nil {
		t.Fatalf("NewOAuth2Exchanger() unexpected error: %v", err)
	}
	return ex
}

func TestOAuth2Exchanger_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != tokenExchangeGrantType {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("subject_token"); got != "up-123" {
			t.Errorf("subject_token = %q, want up-123", got)
		}
		if got := r.PostForm.Get("client_id"); got != "client" {
			t.Errorf("client_id = %q, want client", got)
		}
		if got := r.PostForm.Get("client_secret"); got != "secret" {
			t.Errorf("client_secret = %q, want secret", got)
		}
		if got := r.PostForm.Get("audience"); got != "downstream" {
			t.Errorf("audience = %q, want downstream", got)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Tokenbridge/") {
			t.Errorf("User-Agent = %q, want Tokenbridge prefix", ua)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "down-456", "token_type": "Bearer", "expires_in": 3600}`))
	}))
	defer srv.Close()

	ex := newOAuth2TestExchanger(t, srv.URL)

	artifact, err := ex.Exchange(context.Background(), "up-123")
	if err != nil {
		t.Fatalf("Exchange() unexpected error: %v", err)
	}
	if artifact.Value != "down-456" {
		t.Errorf("Value = %q, want down-456", artifact.Value)
	}
	if artifact.Fingerprint == "" || artifact.Fingerprint == "down-456" {
		t.Errorf("Fingerprint = %q, want non-reversible fingerprint", artifact.Fingerprint)
	}
	if artifact.ExpiresAt.IsZero() {
		t.Error("ExpiresAt is zero, want now+expires_in")
	}
}

func TestOAuth2Exchanger_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	ex := newOAuth2TestExchanger(t, srv.URL)

	if _, err := ex.Exchange(context.Background(), "up-123"); err == nil {
		t.Fatal("Exchange() succeeded on non-OK status, want error")
	}
}

func TestOAuth2Exchanger_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": ""}`))
	}))
	defer srv.Close()

	ex := newOAuth2TestExchanger(t, srv.URL)

	if _, err := ex.Exchange(context.Background(), "up-123"); err == nil {
		t.Fatal("Exchange() succeeded on empty access token, want error")
	}
}

func TestOAuth2Exchanger_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ex := newOAuth2TestExchanger(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ex.Exchange(ctx, "up-123"); err == nil {
		t.Fatal("Exchange() succeeded with cancelled context, want error")
	}
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ExchangeConfig
		wantErr bool
	}{
		{
			name: "OAuth2 OK",
			cfg: config.ExchangeConfig{
				Name: "fabric",
				Type: OAuth2Type,
				Config: map[string]any{
					"endpoint":      "https://idp.example.com/token",
					"client_id":     "client",
					"client_secret": "secret",
					"timeout":       "10s",
				},
			},
		},
		{
			name: "OAuth2 Missing Secret",
			cfg: config.ExchangeConfig{
				Name: "fabric",
				Type: OAuth2Type,
				Config: map[string]any{
					"endpoint":  "https://idp.example.com/token",
					"client_id": "client",
				},
			},
			wantErr: true,
		},
		{
			name: "Static OK",
			cfg: config.ExchangeConfig{
				Name: "dev",
				Type: StaticType,
				Config: map[string]any{
					"tokens": map[string]string{"a": "b"},
				},
			},
		},
		{
			name: "Static Without Tokens",
			cfg: config.ExchangeConfig{
				Name:   "dev",
				Type:   StaticType,
				Config: map[string]any{},
			},
			wantErr: true,
		},
		{
			name:    "Unknown Type",
			cfg:     config.ExchangeConfig{Name: "x", Type: "saml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
