package provider

import (
	"context"
	"encoding/base64"
	"net/url"
	"sync"
	"time"
)

// tokenResponse is the OAuth2 client-credentials grant response shared by
// FatSecret and Kroger.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenSource caches an OAuth2 client-credentials token and refreshes it
// shortly before expiry.
type TokenSource struct {
	caller       *Caller
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewTokenSource creates a token source for the given credentials.
func NewTokenSource(caller *Caller, tokenURL, clientID, clientSecret, scope string) *TokenSource {
	return &TokenSource{
		caller:       caller,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		now:          time.Now,
	}
}

// Token returns a valid access token, fetching a new one when the cached token
// is missing or within a minute of expiry.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expires.Add(-time.Minute)) {
		return ts.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	if ts.scope != "" {
		form.Set("scope", ts.scope)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(ts.clientID + ":" + ts.clientSecret))

	var resp tokenResponse
	err := ts.caller.DoJSON(ctx, Request{
		Operation: "token",
		Method:    "POST",
		URL:       ts.tokenURL,
		Headers:   map[string]string{"Authorization": "Basic " + basic},
		Form:      form,
	}, &resp)
	if err != nil {
		return "", err
	}

	ts.token = resp.AccessToken
	ts.expires = ts.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	return ts.token, nil
}
