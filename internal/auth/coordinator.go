package auth

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

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/shared"
	"golang.org/x/oauth2"
)

const (
	// expiryMargin is the fixed safety window before expiry at which a
	// cached access token is refreshed rather than returned.
	expiryMargin = 5 * time.Minute

	// defaultTokenLifetime applies when the provider omits expires_in on refresh.
	defaultTokenLifetime = 3600 * time.Second
)

// State enumerates the coordinator's lifecycle states.
type State int

const (
	StateIdle State = iota
	StateAuthorizing
	StateExchangingCode
	StateAuthenticated
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthorizing:
		return "authorizing"
	case StateExchangingCode:
		return "exchanging_code"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Authorizer runs the provider's interactive consent flow and blocks until
// the provider redirects back or the flow fails or is cancelled.
//
// Implemented by [server.CallbackAuthorizer], which hosts a local callback
// endpoint and opens the system browser.
type Authorizer interface {
	Authorize(ctx context.Context, authURL string) (*url.URL, error)
}

// pkceFlow is the per-attempt exchange context. It lives only for the
// duration of one Authenticate call and is never persisted.
type pkceFlow struct {
	verifier  string
	challenge string
	state     string
}

// Coordinator owns the authorization-code exchange, token refresh, and
// expiry-aware token retrieval.
//
// Exactly one Authenticate attempt may be in flight at a time; a concurrent
// call is rejected with [ErrAuthInFlight] so verifiers from separate attempts
// can never interleave.
type Coordinator struct {
	provider   shared.Provider
	oauth      *oauth2.Config
	store      TokenStore
	authorizer Authorizer
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time

	mu    sync.Mutex
	state State
	flow  *pkceFlow
}

// CoordinatorOpts contains dependencies for constructing a Coordinator.
type CoordinatorOpts struct {
	Provider   shared.Provider
	Store      TokenStore
	Authorizer Authorizer
	HTTPClient *http.Client
	Logger     *log.Logger
	Now        func() time.Time
}

// NewCoordinator creates a Coordinator for the given provider configuration.
func NewCoordinator(opts CoordinatorOpts) (*Coordinator, error) {
	if opts.Provider.ClientID == "" {
		return nil, fmt.Errorf("%w: provider client_id must be set", shared.ErrMissingCredentials)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: token store is required", shared.ErrInvalidConfig)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	config := &oauth2.Config{
		ClientID:    opts.Provider.ClientID,
		RedirectURL: opts.Provider.RedirectURI,
		Scopes:      opts.Provider.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  opts.Provider.AuthURL,
			TokenURL: opts.Provider.TokenURL,
		},
	}

	return &Coordinator{
		provider:   opts.Provider,
		oauth:      config,
		store:      opts.Store,
		authorizer: opts.Authorizer,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		now:        opts.Now,
		state:      StateIdle,
	}, nil
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Authenticate runs the full authorization-code flow: generate a PKCE
// context, send the user through the provider's consent page, exchange the
// returned code for tokens, and persist the credential record.
//
// Valid only while no other attempt is in flight; a concurrent call fails
// with [ErrAuthInFlight].
func (c *Coordinator) Authenticate(ctx context.Context) error {
	flow, err := c.beginFlow()
	if err != nil {
		return err
	}
	defer c.endFlow()

	authURL := c.oauth.AuthCodeURL(flow.state, oauth2.S256ChallengeOption(flow.verifier))

	c.logger.Info("starting authorization flow")

	callback, err := c.authorizer.Authorize(ctx, authURL)
	if err != nil {
		c.fail()
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	code, err := codeFromCallback(callback, flow.state)
	if err != nil {
		c.fail()
		return err
	}

	c.setState(StateExchangingCode)

	record, err := c.exchangeCode(ctx, code, flow.verifier)
	if err != nil {
		c.fail()
		return err
	}

	if err := c.store.Save(*record); err != nil {
		c.fail()
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	c.setState(StateAuthenticated)
	c.logger.Info("authentication complete", "expires_at", record.ExpiresAt)

	return nil
}

// ValidAccessToken returns a stored access token that is safe to use,
// refreshing it first when its expiry falls inside the safety margin.
//
// A failed refresh fails with [ErrReauthenticationRequired] and leaves the
// stored credential untouched.
func (c *Coordinator) ValidAccessToken(ctx context.Context) (string, error) {
	record, err := c.store.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load tokens: %w", err)
	}
	if record == nil || !record.Valid() {
		return "", shared.ErrNotAuthenticated
	}

	if record.ExpiresAt.Sub(c.now()) > expiryMargin {
		return record.AccessToken, nil
	}

	c.mu.Lock()
	prev := c.state
	c.state = StateRefreshing
	c.mu.Unlock()

	refreshed, err := c.refresh(ctx, *record)
	if err != nil {
		c.setState(prev)
		return "", err
	}

	if err := c.store.Save(*refreshed); err != nil {
		c.setState(prev)
		return "", fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	c.setState(StateAuthenticated)

	return refreshed.AccessToken, nil
}

// IsAuthenticated reports whether both tokens exist in the store,
// independent of expiry.
func (c *Coordinator) IsAuthenticated() bool {
	record, err := c.store.Load()
	if err != nil {
		return false
	}
	return record != nil && record.Valid()
}

// Logout clears the token store and any in-flight PKCE context. Idempotent.
func (c *Coordinator) Logout() error {
	c.mu.Lock()
	c.flow = nil
	c.state = StateIdle
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	return nil
}

// beginFlow creates a fresh PKCE context, rejecting overlapping attempts.
// Any settled state may start a new attempt: a failed login is retryable and
// an authenticated user may re-consent without logging out first. The gate
// is the in-flight context, not the lifecycle state.
func (c *Coordinator) beginFlow() (*pkceFlow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.flow != nil {
		return nil, ErrAuthInFlight
	}

	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}

	c.flow = &pkceFlow{
		verifier:  verifier,
		challenge: DeriveChallenge(verifier),
		state:     state,
	}
	c.state = StateAuthorizing

	return c.flow, nil
}

// endFlow discards the PKCE context the instant the attempt completes or fails.
func (c *Coordinator) endFlow() {
	c.mu.Lock()
	c.flow = nil
	c.mu.Unlock()
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) fail() {
	c.setState(StateFailed)
}

// codeFromCallback validates the state parameter and extracts the one-time
// authorization code, surfacing provider error parameters when it is absent.
func codeFromCallback(callback *url.URL, expectedState string) (string, error) {
	query := callback.Query()

	if state := query.Get("state"); state != expectedState {
		return "", fmt.Errorf("%w: state mismatch in callback", shared.ErrAuthFailed)
	}

	code := query.Get("code")
	if code == "" {
		return "", &AuthorizationError{
			Code:        query.Get("error"),
			Description: query.Get("error_description"),
		}
	}

	return code, nil
}

// tokenResponse is the provider's token endpoint JSON shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// exchangeCode trades the authorization code plus the original verifier for a
// credential record. The token endpoint wants the verifier, never the challenge.
func (c *Coordinator) exchangeCode(ctx context.Context, code, verifier string) (*TokenRecord, error) {
	form := url.Values{
		"client_id":     {c.provider.ClientID},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.provider.RedirectURI},
		"code_verifier": {verifier},
	}

	body, err := c.postToken(ctx, form)
	if err != nil {
		return nil, err
	}

	if body.AccessToken == "" || body.RefreshToken == "" {
		return nil, ErrIncompleteTokenResponse
	}

	return &TokenRecord{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    c.expiry(body.ExpiresIn),
	}, nil
}

// refresh exchanges the stored refresh token for a new access token,
// preserving the previous refresh token when the provider does not rotate it.
func (c *Coordinator) refresh(ctx context.Context, record TokenRecord) (*TokenRecord, error) {
	form := url.Values{
		"client_id":     {c.provider.ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {record.RefreshToken},
	}

	body, err := c.postToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReauthenticationRequired, err)
	}

	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response missing access token", ErrReauthenticationRequired)
	}

	refreshToken := record.RefreshToken
	if body.RefreshToken != "" {
		refreshToken = body.RefreshToken
	}

	return &TokenRecord{
		AccessToken:  body.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    c.expiry(body.ExpiresIn),
	}, nil
}

// postToken POSTs a form-encoded request to the token endpoint.
func (c *Coordinator) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TokenExchangeError{Status: resp.StatusCode, Body: string(raw)}
	}

	var body tokenResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &body, nil
}

// expiry computes issue time + lifetime, defaulting when the provider omits it.
func (c *Coordinator) expiry(expiresIn int) time.Time {
	lifetime := defaultTokenLifetime
	if expiresIn > 0 {
		lifetime = time.Duration(expiresIn) * time.Second
	}
	return c.now().Add(lifetime)
}
