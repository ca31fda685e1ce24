package workitem

import (
	"errors"
	"strings"
	"time"
)

// Attribution carries source provenance for a work item. It is stamped onto
// every artifact the item produces.
type Attribution struct {
	Provider     string    `json:"provider"`
	EpisodeTitle string    `json:"episode_title"`
	URL          string    `json:"url"`
	PublishedAt  time.Time `json:"published_at"`
}

// Item is one unit of source material submitted for generation. Items are
// produced by the ingestion collaborator and consumed read-only by the
// pipeline.
type Item struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Transcript  string      `json:"transcript"`
	Attribution Attribution `json:"attribution"`
}

// Validate reports whether the item is usable as pipeline input.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return errors.New("work item: id required")
	}
	if strings.TrimSpace(i.Transcript) == "" {
		return errors.New("work item: transcript required")
	}
	return nil
}
