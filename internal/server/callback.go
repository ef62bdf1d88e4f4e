package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/shared"
)

// CallbackResult carries the raw redirect the provider sent back. Token
// exchange stays with the auth coordinator, which holds the PKCE verifier;
// this handler only captures the callback.
type CallbackResult struct {
	URL *url.URL
	err error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler serves the OAuth redirect endpoint for a single
// authorization attempt. Implements the [Handler] interface.
type CallbackHandler struct {
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler that captures exactly one callback.
func NewCallbackHandler() *CallbackHandler {
	return &CallbackHandler{
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET /callback"}
}

// ServeHTTP captures the redirect URL and hands it to the waiting flow.
// State validation and code extraction belong to the coordinator.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	h.Send(CallbackResult{URL: r.URL})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving the callback.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

const callbackPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Complete</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Authorization Complete</h1>
        <p>You can close this window and return to pagetune.</p>
    </div>
</body>
</html>
`

// SharedCallbackAuthorizer implements [auth.Authorizer] on a long-lived
// router (the companion daemon), where the redirect endpoint must outlive
// any single attempt. Callbacks arriving with no attempt waiting are
// acknowledged and dropped.
type SharedCallbackAuthorizer struct {
	logger      *log.Logger
	openBrowser func(url string) error

	mu      sync.Mutex
	current chan CallbackResult
}

// NewSharedCallbackAuthorizer creates an authorizer meant to be registered
// on an existing [Router].
func NewSharedCallbackAuthorizer(logger *log.Logger) *SharedCallbackAuthorizer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SharedCallbackAuthorizer{
		logger:      logger,
		openBrowser: shared.OpenBrowser,
	}
}

// Routes returns the HTTP routes this handler serves.
func (a *SharedCallbackAuthorizer) Routes() []string {
	return []string{"GET /callback"}
}

// ServeHTTP delivers the redirect to the waiting attempt, if any.
func (a *SharedCallbackAuthorizer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	current := a.current
	a.current = nil
	a.mu.Unlock()

	if current == nil {
		http.Error(w, "No authorization in progress", http.StatusConflict)
		return
	}

	current <- CallbackResult{URL: r.URL}
	close(current)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

// Authorize opens the consent page and blocks until the provider redirects
// back to the shared endpoint or ctx is done.
func (a *SharedCallbackAuthorizer) Authorize(ctx context.Context, authURL string) (*url.URL, error) {
	result := make(chan CallbackResult, 1)

	a.mu.Lock()
	if a.current != nil {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: another authorization is waiting for its callback", shared.ErrAuthFailed)
	}
	a.current = result
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		if a.current == result {
			a.current = nil
		}
		a.mu.Unlock()
	}()

	if err := a.openBrowser(authURL); err != nil {
		a.logger.Warnf("failed to open browser automatically %v", err)
		a.logger.Infof("open this URL in your browser: %s", authURL)
	}

	select {
	case r := <-result:
		if r.Error() != nil {
			return nil, r.Error()
		}
		return r.URL, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CallbackAuthorizer implements [auth.Authorizer]: it hosts the redirect
// endpoint on a short-lived local server, opens the system browser to the
// consent page, and blocks until the provider redirects back.
type CallbackAuthorizer struct {
	addr        string
	logger      *log.Logger
	openBrowser func(url string) error
}

// NewCallbackAuthorizer creates an authorizer listening on host:port.
func NewCallbackAuthorizer(host string, port int, logger *log.Logger) *CallbackAuthorizer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CallbackAuthorizer{
		addr:        fmt.Sprintf("%s:%d", host, port),
		logger:      logger,
		openBrowser: shared.OpenBrowser,
	}
}

// Authorize runs the interactive consent flow and returns the raw callback URL.
func (a *CallbackAuthorizer) Authorize(ctx context.Context, authURL string) (*url.URL, error) {
	handler := NewCallbackHandler()
	router := NewBasicRouter()
	router.Handler(handler)

	httpServer := &http.Server{
		Addr:    a.addr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Infof("starting callback server at %v", a.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	if err := a.openBrowser(authURL); err != nil {
		a.logger.Warnf("failed to open browser automatically %v", err)
		a.logger.Infof("open this URL in your browser: %s", authURL)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return nil, result.Error()
		}
		return result.URL, nil
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
