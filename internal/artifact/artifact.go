package artifact

import (
	"time"

	"storyforge/internal/workitem"
)

// Artifact is the generation pipeline's output unit, handed to the
// persistence collaborator once validated.
type Artifact struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	FullContent string `json:"full_content"`
	ContentType string `json:"content_type"`

	BeltLevels      []string `json:"belt_levels,omitempty"`
	DifficultyLevel string   `json:"difficulty_level,omitempty"`
	TimeRequired    string   `json:"time_required,omitempty"`

	ActionablePractices []string `json:"actionable_practices,omitempty"`
	DiscussionPrompts   []string `json:"discussion_prompts,omitempty"`
	AIToolsMentioned    []string `json:"ai_tools_mentioned,omitempty"`

	FamilySecurityRelevance string   `json:"family_security_relevance,omitempty"`
	ChildrenEducationAngle  string   `json:"children_education_angle,omitempty"`
	FamilyDiscussionPoints  []string `json:"family_discussion_points,omitempty"`
	AIIntegrationPotential  string   `json:"ai_integration_potential,omitempty"`

	SourceProvider     string    `json:"source_provider,omitempty"`
	SourceEpisode      string    `json:"source_episode,omitempty"`
	SourceURL          string    `json:"source_url,omitempty"`
	SourcePublishedAt  time.Time `json:"source_published_at,omitzero"`
	ProcessedAt        time.Time `json:"processed_at,omitzero"`
	GenerationMethod   string    `json:"generation_method,omitempty"`
	QualityScore       float64   `json:"quality_score"`

	// fieldCount is the number of populated fields in the raw candidate,
	// before mapping. Used by the richness bonus.
	fieldCount int
}

// FieldCount reports how many populated fields the raw candidate carried.
func (a Artifact) FieldCount() int {
	return a.fieldCount
}

// StampAttribution attaches work item provenance to the artifact.
func (a *Artifact) StampAttribution(attr workitem.Attribution, now time.Time) {
	a.SourceProvider = attr.Provider
	a.SourceEpisode = attr.EpisodeTitle
	a.SourceURL = attr.URL
	a.SourcePublishedAt = attr.PublishedAt
	a.ProcessedAt = now
}
