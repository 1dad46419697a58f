package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/pupaakdev/userd/internal/apperror"
)

// fakeGitHub stands in for both the OAuth token endpoint and the REST API.
// Handlers can be swapped per test to simulate failures.
type fakeGitHub struct {
	tokenStatus  int
	userStatus   int
	emailsStatus int
	user         githubUser
	emails       []githubEmail
}

func (f *fakeGitHub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if f.tokenStatus != 0 && f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gho_testtoken",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if f.userStatus != 0 && f.userStatus != http.StatusOK {
			w.WriteHeader(f.userStatus)
			return
		}
		json.NewEncoder(w).Encode(f.user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if f.emailsStatus != 0 && f.emailsStatus != http.StatusOK {
			w.WriteHeader(f.emailsStatus)
			return
		}
		json.NewEncoder(w).Encode(f.emails)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTestProvider points a GitHubProvider at the fake server.
func newTestProvider(t *testing.T, srv *httptest.Server) *GitHubProvider {
	t.Helper()
	p, err := NewGitHubProvider("client-id", "client-secret", "http://localhost:8080/oauth/github/callback")
	if err != nil {
		t.Fatalf("NewGitHubProvider: %v", err)
	}
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}
	p.apiBaseURL = srv.URL
	return p
}

// =========================================================================
// CONSTRUCTION & AUTH URL TESTS
// =========================================================================

func TestNewGitHubProvider_MissingCredentials(t *testing.T) {
	_, err := NewGitHubProvider("", "", "http://localhost/callback")
	if !errors.Is(err, apperror.ErrConfig) {
		t.Fatalf("NewGitHubProvider() error = %v, want ErrConfig", err)
	}
}

func TestAuthURL_CarriesStateAndScopes(t *testing.T) {
	p, err := NewGitHubProvider("client-id", "client-secret", "http://localhost/callback")
	if err != nil {
		t.Fatalf("NewGitHubProvider: %v", err)
	}

	u := p.AuthURL("state-xyz")
	if !strings.Contains(u, "state=state-xyz") {
		t.Errorf("AuthURL() = %q, missing state", u)
	}
	if !strings.Contains(u, "read%3Auser") || !strings.Contains(u, "user%3Aemail") {
		t.Errorf("AuthURL() = %q, missing requested scopes", u)
	}
}

// =========================================================================
// EXCHANGE TESTS
// =========================================================================

func TestExchange_Success(t *testing.T) {
	gh := &fakeGitHub{
		user: githubUser{ID: 42, Login: "octocat", Name: "The Octocat", AvatarURL: "https://example.com/a.png"},
		emails: []githubEmail{
			{Email: "spare@example.com", Primary: false, Verified: true},
			{Email: "unverified@example.com", Primary: true, Verified: false},
			{Email: "a@ex.com", Primary: true, Verified: true},
		},
	}
	p := newTestProvider(t, gh.server(t))

	profile, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if profile.ID != 42 {
		t.Errorf("profile.ID = %d, want 42", profile.ID)
	}
	if profile.Email != "a@ex.com" {
		t.Errorf("profile.Email = %q, want the verified primary email", profile.Email)
	}
	if profile.Name != "The Octocat" {
		t.Errorf("profile.Name = %q, want %q", profile.Name, "The Octocat")
	}
	if profile.AvatarURL != "https://example.com/a.png" {
		t.Errorf("profile.AvatarURL = %q", profile.AvatarURL)
	}
}

func TestExchange_NoVerifiedPrimaryEmail(t *testing.T) {
	gh := &fakeGitHub{
		user: githubUser{ID: 42, Login: "octocat"},
		emails: []githubEmail{
			{Email: "unverified@example.com", Primary: true, Verified: false},
			{Email: "secondary@example.com", Primary: false, Verified: true},
		},
	}
	p := newTestProvider(t, gh.server(t))

	_, err := p.Exchange(context.Background(), "good-code")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Exchange() error = %v, want ErrValidation", err)
	}
}

func TestExchange_TokenEndpointRejectsCode(t *testing.T) {
	gh := &fakeGitHub{tokenStatus: http.StatusBadRequest}
	p := newTestProvider(t, gh.server(t))

	_, err := p.Exchange(context.Background(), "bad-code")
	if !errors.Is(err, apperror.ErrUpstreamAuth) {
		t.Fatalf("Exchange() error = %v, want ErrUpstreamAuth", err)
	}
}

func TestExchange_ProfileFetchFails(t *testing.T) {
	gh := &fakeGitHub{
		userStatus: http.StatusInternalServerError,
		emails:     []githubEmail{{Email: "a@ex.com", Primary: true, Verified: true}},
	}
	p := newTestProvider(t, gh.server(t))

	_, err := p.Exchange(context.Background(), "good-code")
	if !errors.Is(err, apperror.ErrUpstreamAuth) {
		t.Fatalf("Exchange() error = %v, want ErrUpstreamAuth", err)
	}
}

func TestExchange_ProviderUnreachable(t *testing.T) {
	gh := &fakeGitHub{}
	srv := gh.server(t)
	p := newTestProvider(t, srv)
	srv.Close()

	_, err := p.Exchange(context.Background(), "good-code")
	if !errors.Is(err, apperror.ErrUpstreamUnavailable) {
		t.Fatalf("Exchange() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestExchange_InvalidUserPayload(t *testing.T) {
	gh := &fakeGitHub{
		user:   githubUser{ID: 0},
		emails: []githubEmail{{Email: "a@ex.com", Primary: true, Verified: true}},
	}
	p := newTestProvider(t, gh.server(t))

	_, err := p.Exchange(context.Background(), "good-code")
	if !errors.Is(err, apperror.ErrUpstreamAuth) {
		t.Fatalf("Exchange() error = %v, want ErrUpstreamAuth", err)
	}
}
