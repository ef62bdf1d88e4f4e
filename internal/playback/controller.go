package playback

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/player"
	"github.com/desertthunder/pagetune/internal/shared"
)

// trackURIPrefix converts provider track identifiers into playable URIs.
const trackURIPrefix = "spotify:track:"

// replayTimeout bounds the deferred play call issued when the session
// becomes ready.
const replayTimeout = 30 * time.Second

// PendingQueue holds the single queued play request across UI context
// restarts. Implemented by [repositories.PendingPlaybackRepository].
type PendingQueue interface {
	Put(trackIDs []string) error
	Take() ([]string, error)
	Clear() error
}

// Controller issues transport commands once a device is known, queueing a
// play request that arrives before the session is ready and replaying it the
// instant readiness is reported.
type Controller struct {
	client  *Client
	bridge  *player.Bridge
	pending PendingQueue
	logger  *log.Logger

	mu sync.Mutex
}

// NewController wires a controller to the session bridge, registering the
// replay hook for queued requests.
func NewController(client *Client, bridge *player.Bridge, pending PendingQueue, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	c := &Controller{
		client:  client,
		bridge:  bridge,
		pending: pending,
		logger:  logger,
	}

	bridge.OnReady(c.replay)

	return c
}

// Play starts playback of the given track identifiers. When the session is
// not ready the request is queued (newer supersedes older) and replayed
// automatically on readiness; the returned boolean reports queueing.
func (c *Controller) Play(ctx context.Context, trackIDs []string) (bool, error) {
	if len(trackIDs) == 0 {
		return false, shared.ErrMissingArgument
	}

	session := c.bridge.Session()
	if !session.Ready {
		c.logger.Info("session not ready, queueing play request", "tracks", len(trackIDs))
		if err := c.pending.Put(trackIDs); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, c.client.Play(ctx, session.DeviceID, trackURIs(trackIDs))
}

// Pause pauses playback on the current device.
func (c *Controller) Pause(ctx context.Context) error {
	return c.client.Pause(ctx, c.bridge.Session().DeviceID)
}

// Next skips forward on the current device.
func (c *Controller) Next(ctx context.Context) error {
	return c.client.Next(ctx, c.bridge.Session().DeviceID)
}

// Previous skips backward on the current device.
func (c *Controller) Previous(ctx context.Context) error {
	return c.client.Previous(ctx, c.bridge.Session().DeviceID)
}

// replay consumes the pending slot exactly once per readiness transition.
// This is a deferred first attempt, not a retry of a failed call.
func (c *Controller) replay(deviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	trackIDs, err := c.pending.Take()
	if err != nil {
		c.logger.Warn("failed to read pending playback", "error", err)
		return
	}
	if len(trackIDs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), replayTimeout)
	defer cancel()

	c.logger.Info("replaying queued play request", "device_id", deviceID, "tracks", len(trackIDs))

	if err := c.client.Play(ctx, deviceID, trackURIs(trackIDs)); err != nil {
		c.logger.Error("queued play request failed", "error", err)
	}
}

func trackURIs(trackIDs []string) []string {
	uris := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		uris = append(uris, trackURIPrefix+id)
	}
	return uris
}
