// Spotify Web API playback transport.
//
// Endpoint shapes based on https://developer.spotify.com/documentation/web-api/reference/
package playback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/player"
	"github.com/desertthunder/pagetune/internal/shared"
	"golang.org/x/time/rate"
)

// TokenProvider supplies a usable bearer token, refreshing behind the scenes
// when the stored one is close to expiry. Implemented by [auth.Coordinator].
type TokenProvider interface {
	ValidAccessToken(ctx context.Context) (string, error)
}

// ControlError reports a failed transport command with enough detail to
// render a user-facing explanation. Transport commands are never retried
// automatically; repeated play/pause calls are not safely idempotent.
type ControlError struct {
	Op     string
	Status int
	Body   string
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.Status, e.Body)
}

// Client issues playback commands against the provider's Web API.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a playback client rooted at baseURL (e.g.
// "https://api.spotify.com/v1").
func NewClient(baseURL string, tokens TokenProvider, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		logger:     logger,
	}
}

// Play starts playback of the given track URIs on the device.
func (c *Client) Play(ctx context.Context, deviceID string, uris []string) error {
	body := map[string]any{"uris": uris}
	return c.control(ctx, http.MethodPut, "/me/player/play", deviceID, body)
}

// Pause pauses playback on the device.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.control(ctx, http.MethodPut, "/me/player/pause", deviceID, nil)
}

// Next skips to the next track on the device.
func (c *Client) Next(ctx context.Context, deviceID string) error {
	return c.control(ctx, http.MethodPost, "/me/player/next", deviceID, nil)
}

// Previous skips to the previous track on the device.
func (c *Client) Previous(ctx context.Context, deviceID string) error {
	return c.control(ctx, http.MethodPost, "/me/player/previous", deviceID, nil)
}

// Devices retrieves the provider's device listing. Used by the session
// bridge as its readiness fallback.
func (c *Client) Devices(ctx context.Context) ([]player.Device, error) {
	var response struct {
		Devices []player.Device `json:"devices"`
	}

	if err := c.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	return response.Devices, nil
}

// control issues one transport command scoped to a device.
func (c *Client) control(ctx context.Context, method, endpoint, deviceID string, body any) error {
	if deviceID == "" {
		return player.ErrDeviceNotFound
	}

	target := fmt.Sprintf("%s?device_id=%s", endpoint, url.QueryEscape(deviceID))
	err := c.doRequest(ctx, method, target, body, nil)

	var ctrlErr *ControlError
	if errors.As(err, &ctrlErr) && ctrlErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %v", player.ErrDeviceNotFound, err)
	}

	return err
}

// doRequest performs an authenticated, rate-limited HTTP request.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.tokens.ValidAccessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &ControlError{Op: method + " " + endpoint, Status: resp.StatusCode, Body: string(raw)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
