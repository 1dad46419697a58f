package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/pupaakdev/userd/internal/apperror"
)

// outboundTimeout bounds the whole exchange (token + profile + emails).
// A provider that doesn't answer within this window surfaces as
// UpstreamUnavailable rather than hanging the request.
const outboundTimeout = 10 * time.Second

// Profile is the provider identity resolved by Exchange: the stable numeric
// id, display fields, and the verified primary email.
type Profile struct {
	ID        int64
	Login     string
	Name      string
	Email     string
	AvatarURL string
}

// githubUser is the portion of the GitHub /user response we care about.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// githubEmail is one entry of the GitHub /user/emails response.
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization
// Code flow: redirect to consent, exchange the returned code server-side,
// then fetch the profile and verified emails with the access token.
type GitHubProvider struct {
	config     *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewGitHubProvider creates a GitHubProvider with the given OAuth app
// credentials. Missing credentials are a configuration error; the caller
// decides whether that is fatal or just disables the OAuth routes.
//
// Requested scopes: "read:user" (public profile) and "user:email"
// (email addresses, including private ones).
func NewGitHubProvider(clientID, clientSecret, callbackURL string) (*GitHubProvider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, apperror.Config("GitHub OAuth credentials are not set")
	}
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBaseURL: "https://api.github.com",
		httpClient: &http.Client{Timeout: outboundTimeout},
	}, nil
}

// AuthURL returns the consent-screen URL to redirect the user to. The state
// value is echoed back on the callback and verified against a cookie to
// prevent CSRF.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a Profile.
//
// The code→token exchange runs first; the profile and email fetches are
// independent given the token, so they run concurrently and both must
// succeed. Failures split into UpstreamAuth (the provider answered and
// refused) and UpstreamUnavailable (timeout or network failure); a missing
// verified primary email is a validation failure, not an upstream one.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, apperror.UpstreamAuth("GitHub token exchange failed")
		}
		return nil, apperror.UpstreamUnavailable("GitHub token endpoint unreachable")
	}

	client := p.config.Client(ctx, oauthToken)

	var (
		wg       sync.WaitGroup
		ghUser   githubUser
		emails   []githubEmail
		userErr  error
		emailErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		userErr = p.getJSON(ctx, client, "/user", &ghUser)
	}()
	go func() {
		defer wg.Done()
		emailErr = p.getJSON(ctx, client, "/user/emails", &emails)
	}()
	wg.Wait()

	if userErr != nil {
		return nil, userErr
	}
	if emailErr != nil {
		return nil, emailErr
	}
	if ghUser.ID == 0 {
		return nil, apperror.UpstreamAuth("GitHub returned an invalid user")
	}

	primary := ""
	for _, e := range emails {
		if e.Primary && e.Verified {
			primary = e.Email
			break
		}
	}
	if primary == "" {
		return nil, apperror.ValidationFailed("email", "no verified primary email found")
	}

	return &Profile{
		ID:        ghUser.ID,
		Login:     ghUser.Login,
		Name:      ghUser.Name,
		Email:     primary,
		AvatarURL: ghUser.AvatarURL,
	}, nil
}

// getJSON fetches an API path with the token-bearing client and decodes the
// JSON body into out.
func (p *GitHubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return apperror.UpstreamUnavailable("GitHub API timed out")
		}
		return apperror.UpstreamUnavailable("GitHub API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperror.UpstreamAuth(fmt.Sprintf("GitHub API returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.UpstreamAuth("decoding GitHub API response failed")
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
