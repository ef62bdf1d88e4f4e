package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pagetune/internal/recs"
	"github.com/desertthunder/pagetune/internal/relay"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAuthEvent MsgKind = iota
	MsgRecsFetched
	MsgPlayResult
)

// authEventMsg is the constructor for [MsgAuthEvent]
func authEventMsg(event relay.Event) Msg {
	return Msg{kind: MsgAuthEvent, data: event}
}

// recsFetchedMsg is the constructor for [MsgRecsFetched]
func recsFetchedMsg(recommendations []recs.Recommendation, err error) Msg {
	return Msg{
		kind: MsgRecsFetched,
		data: struct {
			recommendations []recs.Recommendation
			err             error
		}{recommendations, err},
	}
}

// playResultMsg is the constructor for [MsgPlayResult]
func playResultMsg(queued bool, err error) Msg {
	return Msg{
		kind: MsgPlayResult,
		data: struct {
			queued bool
			err    error
		}{queued, err},
	}
}
