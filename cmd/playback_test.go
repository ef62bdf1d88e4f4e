package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/pagetune/internal/auth"
	"github.com/desertthunder/pagetune/internal/playback"
	"github.com/desertthunder/pagetune/internal/player"
	"github.com/desertthunder/pagetune/internal/shared"
)

type memTokenStore struct {
	record *auth.TokenRecord
}

func (s *memTokenStore) Save(record auth.TokenRecord) error { s.record = &record; return nil }
func (s *memTokenStore) Load() (*auth.TokenRecord, error)   { return s.record, nil }
func (s *memTokenStore) Clear() error                       { s.record = nil; return nil }

type memQueue struct {
	tracks []string
}

func (q *memQueue) Put(trackIDs []string) error { q.tracks = trackIDs; return nil }
func (q *memQueue) Take() ([]string, error)     { t := q.tracks; q.tracks = nil; return t, nil }
func (q *memQueue) Clear() error                { q.tracks = nil; return nil }

type staticLister struct {
	devices []player.Device
}

func (l staticLister) Devices(context.Context) ([]player.Device, error) {
	return l.devices, nil
}

// newPlayRunner wires a Runner over a counting play endpoint and a
// pre-authenticated coordinator.
func newPlayRunner(t *testing.T, bridge *player.Bridge, queue playback.PendingQueue) (*Runner, *bytes.Buffer, *int) {
	t.Helper()

	var playCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/me/player/play" {
			playCalls++
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	store := &memTokenStore{record: &auth.TokenRecord{
		AccessToken:  "A1",
		RefreshToken: "R1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}

	coordinator, err := auth.NewCoordinator(auth.CoordinatorOpts{
		Provider: shared.Provider{ClientID: "client-id"},
		Store:    store,
	})
	if err != nil {
		t.Fatalf("failed to create coordinator: %v", err)
	}

	client := playback.NewClient(srv.URL, coordinator, srv.Client(), nil)
	controller := playback.NewController(client, bridge, queue, nil)

	var buf bytes.Buffer
	r := NewRunner(RunnerOpts{
		Coordinator: coordinator,
		Client:      client,
		Bridge:      bridge,
		Controller:  controller,
		Output:      &buf,
	})

	return r, &buf, &playCalls
}

func TestPlayCommand(t *testing.T) {
	t.Run("Reports Direct Play", func(t *testing.T) {
		bridge := player.NewBridge(player.BridgeOpts{
			Frame:     player.NoFrame{},
			ReadyWait: 50 * time.Millisecond,
		})
		r, buf, playCalls := newPlayRunner(t, bridge, &memQueue{})

		bridge.HandleMessage(player.Message{Type: player.MsgPlayerReady, DeviceID: "D1"})

		if err := playCommand(r).Run(context.Background(), []string{"play", "t1"}); err != nil {
			t.Fatalf("play failed: %v", err)
		}

		if *playCalls != 1 {
			t.Errorf("expected 1 play call, got %d", *playCalls)
		}
		if got := buf.String(); !strings.Contains(got, "▶ Playing 1 track(s) on D1") {
			t.Errorf("expected direct-play message, got %q", got)
		}
		if strings.Contains(buf.String(), "queued") {
			t.Errorf("direct play must not report queueing: %q", buf.String())
		}
	})

	t.Run("Reports Queued Request", func(t *testing.T) {
		// A player error can invalidate the session between initialization
		// and the play call; the controller then queues the request.
		bridge := player.NewBridge(player.BridgeOpts{
			Frame:     player.NoFrame{},
			Devices:   staticLister{devices: []player.Device{{ID: "D1", Name: "Pagetune Player"}}},
			ReadyWait: 50 * time.Millisecond,
		})
		queue := &memQueue{}
		r, buf, playCalls := newPlayRunner(t, bridge, queue)

		bridge.OnReady(func(string) { bridge.Invalidate() })

		if err := playCommand(r).Run(context.Background(), []string{"play", "t1"}); err != nil {
			t.Fatalf("play failed: %v", err)
		}

		if *playCalls != 0 {
			t.Errorf("expected no play calls, got %d", *playCalls)
		}
		if got := buf.String(); !strings.Contains(got, "⧗ No device ready, playback queued") {
			t.Errorf("expected queued message, got %q", got)
		}
		if len(queue.tracks) != 1 || queue.tracks[0] != "t1" {
			t.Errorf("expected t1 in the pending slot, got %v", queue.tracks)
		}
	})

	t.Run("Requires Track IDs", func(t *testing.T) {
		bridge := player.NewBridge(player.BridgeOpts{
			Frame:     player.NoFrame{},
			ReadyWait: 50 * time.Millisecond,
		})
		r, _, _ := newPlayRunner(t, bridge, &memQueue{})

		if err := playCommand(r).Run(context.Background(), []string{"play"}); err == nil {
			t.Error("expected an error without track ids")
		}
	})
}
