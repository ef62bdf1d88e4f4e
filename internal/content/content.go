// Package content implements the scraped-content file store: JSON blobs of
// visible page text written by the browser extension, read back as "the most
// recently scraped text" by the recommendation pipeline.
package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/desertthunder/pagetune/internal/shared"
)

// filenameRegex accepts names like "@_2025-09-18_19-44-17.json" or
// "_2025-09-18_19-44-17.json", the extension's naming scheme.
var filenameRegex = regexp.MustCompile(`^@?_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.json$`)

// Page is one scraped capture.
type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Entry describes a stored capture file.
type Entry struct {
	Name    string    `json:"name"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Store persists scraped pages as timestamped JSON files in one directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Save writes a capture under the extension's filename scheme and returns
// the stored filename.
func (s *Store) Save(page Page) (string, error) {
	if page.Timestamp == "" {
		page.Timestamp = s.now().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}

	name := fmt.Sprintf("_%s.json", s.now().Format("2006-01-02_15-04-05"))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write content file: %w", err)
	}

	return name, nil
}

// Latest returns the content field of the most recently modified capture.
// Fails with [shared.ErrNoContent] when the directory holds no captures.
func (s *Store) Latest() (string, error) {
	entries, err := s.List()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", shared.ErrNoContent
	}

	data, err := os.ReadFile(filepath.Join(s.dir, entries[0].Name))
	if err != nil {
		return "", fmt.Errorf("failed to read content file: %w", err)
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return "", fmt.Errorf("failed to parse content file: %w", err)
	}

	return page.Content, nil
}

// List returns stored captures, newest first. Files outside the naming
// scheme are ignored.
func (s *Store) List() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !filenameRegex.MatchString(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    f.Name(),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})

	return entries, nil
}

// Purge deletes captures older than maxAge and returns how many were removed.
func (s *Store) Purge(maxAge time.Duration) (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.ModTime.After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", entry.Name, err)
		}
		removed++
	}

	return removed, nil
}
