// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a compact workflow around the companion pipeline:
//  1. [StatusView] : Authentication state and entry point for login and recommendations
//  2. [AuthView] : Live progress of the browser consent flow, fed by relay events
//  3. [BusyView] : Recommendation agent in flight
//  4. [RecListView] : Browse recommended tracks and start playback
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Auth progress flows through a channel from the relay listener, so the same event
// stream the browser extension consumes over WebSocket drives the terminal UI in-process.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, l, r, a, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
