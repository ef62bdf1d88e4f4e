package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pagetune/internal/auth"
	"github.com/desertthunder/pagetune/internal/content"
	"github.com/desertthunder/pagetune/internal/recs"
	"github.com/desertthunder/pagetune/internal/relay"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	StatusView ViewState = iota
	AuthView
	BusyView
	RecListView
)

// Player starts playback for the TUI. Implemented in cmd over the playback
// controller so the model stays decoupled from device bookkeeping. Play's
// boolean reports queueing: true means no device was ready and the request
// was queued for replay.
type Player interface {
	Prepare(ctx context.Context) error
	Play(ctx context.Context, trackIDs []string) (bool, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	coordinator *auth.Coordinator
	relay       *relay.Relay
	producer    recs.Producer
	contents    *content.Store
	player      Player

	authEvents chan relay.Event

	width           int
	height          int
	status          string
	recommendations []recs.Recommendation
	recList         list.Model
	err             error
	help            help.Model
	keys            keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// The model attaches itself as the relay's listener so auth progress events
// reach the update loop.
func NewModel(ctx context.Context, coordinator *auth.Coordinator, authRelay *relay.Relay, producer recs.Producer, contents *content.Store, player Player) *Model {
	m := &Model{
		ctx:         ctx,
		view:        StatusView,
		coordinator: coordinator,
		relay:       authRelay,
		producer:    producer,
		contents:    contents,
		player:      player,
		authEvents:  make(chan relay.Event, 16),
		help:        help.New(),
		keys:        newKeyMap(),
	}

	authRelay.SetListener(relay.ListenerFunc(func(event relay.Event) error {
		select {
		case m.authEvents <- event:
		default:
		}
		return nil
	}))

	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.recList.Width() == 0 {
			m.recList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case StatusView:
			return m.handleStatusKeys(msg)
		case RecListView:
			return m.handleRecListKeys(msg)
		case AuthView, BusyView:
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		switch msg.kind {
		case MsgAuthEvent:
			return m.handleAuthEvent(msg.data.(relay.Event))

		case MsgRecsFetched:
			data := msg.data.(struct {
				recommendations []recs.Recommendation
				err             error
			})
			if data.err != nil {
				m.status = styles.err.Render(fmt.Sprintf("Recommendations failed: %v", data.err))
				m.view = StatusView
				return m, nil
			}
			m.recommendations = data.recommendations
			items := make([]list.Item, len(data.recommendations))
			for i, rec := range data.recommendations {
				items[i] = recItem{rec: rec}
			}
			m.recList = list.New(items, list.NewDefaultDelegate(), 0, 0)
			m.recList.Title = "Recommended Tracks"
			m.recList.SetSize(m.width-4, m.height-8)
			m.view = RecListView
			return m, nil

		case MsgPlayResult:
			data := msg.data.(struct {
				queued bool
				err    error
			})
			switch {
			case data.err != nil:
				m.status = styles.err.Render(fmt.Sprintf("Playback failed: %v", data.err))
			case data.queued:
				m.status = styles.warn.Render("No device ready, playback queued")
			default:
				m.status = styles.ok.Render("▶ Playing")
			}
			m.view = RecListView
			return m, nil
		}
	}

	if m.view == RecListView {
		var cmd tea.Cmd
		m.recList, cmd = m.recList.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case StatusView:
		return m.renderStatus()
	case AuthView:
		return m.renderAuth()
	case BusyView:
		return m.renderBusy()
	case RecListView:
		return m.renderRecList()
	default:
		return ""
	}
}

func (m *Model) handleStatusKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "l":
		if m.relay.Request(m.ctx) {
			m.view = AuthView
			m.status = ""
			return m, m.waitForAuthEvent()
		}
		m.status = styles.warn.Render("Authentication already in progress")
		return m, nil
	case "r":
		m.view = BusyView
		return m, m.fetchRecommendations()
	}
	return m, nil
}

func (m *Model) handleRecListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = StatusView
		return m, nil
	case "a":
		trackIDs := recs.Eligible(m.recommendations)
		if len(trackIDs) == 0 {
			m.status = styles.warn.Render("Nothing playable in this batch")
			return m, nil
		}
		return m, m.playTracks(trackIDs)
	case "enter":
		selected := m.recList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(recItem); ok && item.rec.SpotifyID != "" {
				return m, m.playTracks([]string{item.rec.SpotifyID})
			}
			m.status = styles.warn.Render("Track has no Spotify ID")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.recList, cmd = m.recList.Update(msg)
	return m, cmd
}

func (m *Model) handleAuthEvent(event relay.Event) (tea.Model, tea.Cmd) {
	switch event.Kind {
	case relay.EventSuccess:
		m.status = styles.ok.Render("✓ Authenticated")
		m.view = StatusView
		return m, nil
	case relay.EventError:
		m.status = styles.err.Render(fmt.Sprintf("✗ %s", event.Message))
		m.view = StatusView
		return m, nil
	default:
		m.status = event.Message
		return m, m.waitForAuthEvent()
	}
}

func (m *Model) waitForAuthEvent() tea.Cmd {
	return func() tea.Msg {
		return authEventMsg(<-m.authEvents)
	}
}

func (m *Model) fetchRecommendations() tea.Cmd {
	return func() tea.Msg {
		text, err := m.contents.Latest()
		if err != nil {
			return recsFetchedMsg(nil, err)
		}
		recommendations, err := m.producer.Recommend(m.ctx, text)
		return recsFetchedMsg(recommendations, err)
	}
}

func (m *Model) playTracks(trackIDs []string) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.Prepare(m.ctx); err != nil {
			return playResultMsg(false, err)
		}
		queued, err := m.player.Play(m.ctx, trackIDs)
		return playResultMsg(queued, err)
	}
}

func (m *Model) renderStatus() string {
	title := styles.title.Render("Pagetune")

	var authLine string
	if m.coordinator.IsAuthenticated() {
		authLine = styles.ok.Render("✓ Authenticated")
	} else {
		authLine = styles.err.Render("✗ Not authenticated")
	}

	helpKeys := []key.Binding{m.keys.login, m.keys.recommend, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	body := fmt.Sprintf("%s\n%s\n", title, authLine)
	if m.status != "" {
		body += fmt.Sprintf("\n%s\n", m.status)
	}

	return fmt.Sprintf("%s\n%s", body, helpView)
}

func (m *Model) renderAuth() string {
	title := styles.title.Render("Authorizing")
	body := "Check your browser to approve access."
	if m.status != "" {
		body = m.status
	}
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, styles.help.Render("q to quit"))
}

func (m *Model) renderBusy() string {
	title := styles.title.Render("Generating Recommendations")
	return fmt.Sprintf("%s\nReading the latest capture...\n\n%s", title, styles.help.Render("q to quit"))
}

func (m *Model) renderRecList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.playAll, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	body := m.recList.View()
	if m.status != "" {
		body += fmt.Sprintf("\n%s", m.status)
	}

	return fmt.Sprintf("%s\n\n%s", body, helpView)
}
