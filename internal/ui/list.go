package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/pagetune/internal/recs"
)

var (
	_ list.Item = recItem{}
)

// recItem wraps [recs.Recommendation] to implement [list.Item].
type recItem struct {
	rec recs.Recommendation
}

func (i recItem) FilterValue() string { return i.rec.Title }
func (i recItem) Title() string       { return fmt.Sprintf("%s — %s", i.rec.Title, i.rec.Artist) }
func (i recItem) Description() string {
	desc := i.rec.MatchReason
	if desc == "" {
		desc = i.rec.Source
	}
	if i.rec.SpotifyID == "" {
		desc = fmt.Sprintf("%s (not playable)", desc)
	}
	return desc
}
