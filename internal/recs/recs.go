// Package recs consumes the upstream recommendation producer: an opaque
// external command that turns scraped page text into a list of track
// suggestions. Only entries carrying a provider track identifier are
// eligible for playback.
package recs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/tidwall/gjson"
)

// Recommendation is one suggested track from the producer.
type Recommendation struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	MatchReason string `json:"match_reason"`
	SpotifyID   string `json:"spotify_id"`
	SpotifyURL  string `json:"spotify_url"`
	PreviewURL  string `json:"preview_url"`
	Source      string `json:"source"`
}

// Producer generates recommendations from page text.
type Producer interface {
	Recommend(ctx context.Context, text string) ([]Recommendation, error)
}

// Parse extracts recommendations from the producer's JSON output. The
// output shape is {"music_recommendations": {"recommendations": [...]},
// "error"?: string}; parsing is lenient because the producer is an opaque
// upstream whose exact field set varies.
func Parse(output []byte) ([]Recommendation, error) {
	doc := string(output)

	if errMsg := gjson.Get(doc, "error"); errMsg.Exists() && errMsg.String() != "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, errMsg.String())
	}

	items := gjson.Get(doc, "music_recommendations.recommendations")
	if !items.Exists() {
		return nil, fmt.Errorf("%w: no recommendations in producer output", shared.ErrInvalidInput)
	}

	var recommendations []Recommendation
	items.ForEach(func(_, item gjson.Result) bool {
		recommendations = append(recommendations, Recommendation{
			Title:       item.Get("title").String(),
			Artist:      item.Get("artist").String(),
			MatchReason: item.Get("match_reason").String(),
			SpotifyID:   spotifyID(item),
			SpotifyURL:  item.Get("spotify_url").String(),
			PreviewURL:  item.Get("preview_url").String(),
			Source:      item.Get("source").String(),
		})
		return true
	})

	return recommendations, nil
}

// spotifyID prefers the explicit field, falling back to the trailing path
// segment of an open.spotify.com track URL.
func spotifyID(item gjson.Result) string {
	if id := item.Get("spotify_id").String(); id != "" {
		return id
	}

	rawURL := item.Get("spotify_url").String()
	if idx := strings.Index(rawURL, "/track/"); idx >= 0 {
		id := rawURL[idx+len("/track/"):]
		if q := strings.IndexAny(id, "?#"); q >= 0 {
			id = id[:q]
		}
		return id
	}

	return ""
}

// Eligible filters to recommendations with a populated track identifier.
func Eligible(recommendations []Recommendation) []string {
	var ids []string
	for _, rec := range recommendations {
		if rec.SpotifyID != "" {
			ids = append(ids, rec.SpotifyID)
		}
	}
	return ids
}

// CommandProducer runs the external agent command, feeding the page text on
// stdin and parsing the JSON it prints.
type CommandProducer struct {
	command string
	args    []string
	logger  *log.Logger
}

// NewCommandProducer creates a producer for the configured agent command.
func NewCommandProducer(config shared.AgentConfig, logger *log.Logger) *CommandProducer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CommandProducer{
		command: config.Command,
		args:    config.Args,
		logger:  logger,
	}
}

// Recommend invokes the agent and parses its output.
func (p *CommandProducer) Recommend(ctx context.Context, text string) ([]Recommendation, error) {
	if p.command == "" {
		return nil, fmt.Errorf("%w: agent command not configured", shared.ErrInvalidConfig)
	}
	if strings.TrimSpace(text) == "" {
		return nil, shared.ErrNoContent
	}

	cmd := exec.CommandContext(ctx, p.command, p.args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.Info("running recommendation agent", "command", p.command)

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("agent failed: %w: %s", err, stderr.String())
	}

	return Parse(stdout.Bytes())
}
