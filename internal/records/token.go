package records

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenExpirySlack is subtracted from the advertised lifetime so a token is
// refreshed before it can expire mid-request.
const tokenExpirySlack = 60 * time.Second

// TokenSource acquires and caches bearer tokens via the OAuth2
// client-credentials grant. Safe for concurrent use.
type TokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	httpClient   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source for the given authority.
func NewTokenSource(tokenURL, clientID, clientSecret, scope string, timeout time.Duration) *TokenSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TokenSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// AcquireToken returns a cached token, fetching a fresh one when the cache is
// empty or close to expiry. Failures surface as *TokenError.
func (ts *TokenSource) AcquireToken(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiresAt) {
		return ts.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {ts.clientID},
		"client_secret": {ts.clientSecret},
		"scope":         {ts.scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &TokenError{Detail: "build token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", &TokenError{Detail: "token endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &TokenError{Detail: "read token response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &TokenError{Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &TokenError{Detail: "decode token response", Err: err}
	}
	if payload.AccessToken == "" {
		return "", &TokenError{Detail: payload.ErrorDesc}
	}

	ts.token = payload.AccessToken
	lifetime := time.Duration(payload.ExpiresIn) * time.Second
	if lifetime > tokenExpirySlack {
		lifetime -= tokenExpirySlack
	}
	ts.expiresAt = time.Now().Add(lifetime)

	return ts.token, nil
}
