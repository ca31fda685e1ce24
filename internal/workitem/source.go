package workitem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileEntry is the on-disk intake shape. A transcript may be supplied inline
// or as a path relative to the intake file.
type fileEntry struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Transcript     string `json:"transcript"`
	TranscriptPath string `json:"transcript_path"`
	Attribution    struct {
		Provider     string `json:"provider"`
		EpisodeTitle string `json:"episode_title"`
		URL          string `json:"url"`
		PublishedAt  string `json:"published_at"`
	} `json:"attribution"`
}

// LoadFile reads work items from a JSON intake file produced by the ingestion
// collaborator. Entries with a transcript_path have the referenced file read
// relative to the intake file's directory.
func LoadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read work items: %w", err)
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse work items: %w", err)
	}

	baseDir := filepath.Dir(path)
	items := make([]Item, 0, len(entries))
	for i, entry := range entries {
		item, err := entry.toItem(baseDir)
		if err != nil {
			return nil, fmt.Errorf("work item %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (e fileEntry) toItem(baseDir string) (Item, error) {
	transcript := e.Transcript
	if transcript == "" && e.TranscriptPath != "" {
		resolved := e.TranscriptPath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(baseDir, resolved)
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Item{}, fmt.Errorf("read transcript: %w", err)
		}
		transcript = string(data)
	}

	item := Item{
		ID:         strings.TrimSpace(e.ID),
		Title:      strings.TrimSpace(e.Title),
		Transcript: transcript,
		Attribution: Attribution{
			Provider:     strings.TrimSpace(e.Attribution.Provider),
			EpisodeTitle: strings.TrimSpace(e.Attribution.EpisodeTitle),
			URL:          strings.TrimSpace(e.Attribution.URL),
		},
	}
	if raw := strings.TrimSpace(e.Attribution.PublishedAt); raw != "" {
		if published, err := time.Parse(time.RFC3339, raw); err == nil {
			item.Attribution.PublishedAt = published
		}
	}
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	return item, nil
}
