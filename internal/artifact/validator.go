package artifact

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storyforge/internal/llm"
	"storyforge/internal/logging"
	"storyforge/internal/services"
	"storyforge/internal/workitem"
)

// candidateKeys are the top-level keys the generator has been observed to
// place its artifact array under, in priority order. The first match wins.
var candidateKeys = []string{
	"investing-dojo-stories",
	"stories",
	"newsletter_content",
	"content",
	"articles",
}

var requiredFields = []string{"id", "title", "summary", "full_content", "content_type"}

// Validator turns raw generator output into validated artifacts. Candidates
// missing required fields are dropped; candidates with out-of-set enum values
// are kept with a warning, since enum drift is recoverable downstream.
type Validator struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewValidator constructs a validator. A nil logger disables warning output.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{logger: logger, now: time.Now}
}

// WithNow overrides the timestamp source (useful for tests).
func (v *Validator) WithNow(now func() time.Time) *Validator {
	if now != nil {
		v.now = now
	}
	return v
}

// Validate parses rawOutput, drops unusable candidates, and stamps the work
// item's attribution onto every survivor. An empty result with a nil error
// means the generator produced nothing usable.
func (v *Validator) Validate(rawOutput string, item workitem.Item) ([]Artifact, error) {
	var document map[string]any
	if err := llm.DecodeJSON(rawOutput, &document); err != nil {
		// Some outputs are a bare array rather than a keyed document.
		var bare []any
		if arrErr := llm.DecodeJSON(rawOutput, &bare); arrErr == nil {
			return v.validateCandidates(bare, item), nil
		}
		return nil, services.Wrap(services.ErrValidation, "validate", "parse", "generator output is not valid JSON", err)
	}

	candidates, key := locateCandidates(document)
	if candidates == nil {
		return nil, services.Wrap(
			services.ErrValidation,
			"validate",
			"locate",
			fmt.Sprintf("no artifact array under expected keys %v", candidateKeys),
			nil,
		)
	}
	v.logger.Debug("located candidate array", logging.String("key", key), logging.Int("candidates", len(candidates)))
	return v.validateCandidates(candidates, item), nil
}

func locateCandidates(document map[string]any) ([]any, string) {
	for _, key := range candidateKeys {
		value, ok := document[key]
		if !ok {
			continue
		}
		if list, ok := value.([]any); ok {
			return list, key
		}
	}
	return nil, ""
}

func (v *Validator) validateCandidates(candidates []any, item workitem.Item) []Artifact {
	artifacts := make([]Artifact, 0, len(candidates))
	for i, candidate := range candidates {
		fields, ok := candidate.(map[string]any)
		if !ok {
			v.logger.Warn("candidate is not an object", logging.Int("candidate", i+1), logging.String(logging.FieldItemID, item.ID))
			continue
		}
		if missing := missingRequiredFields(fields); len(missing) > 0 {
			v.logger.Warn("candidate missing required fields",
				logging.Int("candidate", i+1),
				logging.String("missing", strings.Join(missing, ",")),
				logging.String(logging.FieldItemID, item.ID),
			)
			continue
		}
		for _, problem := range enumProblems(fields) {
			v.logger.Warn("candidate enum value outside declared set",
				logging.Int("candidate", i+1),
				logging.String("detail", problem),
				logging.String(logging.FieldItemID, item.ID),
			)
		}

		artifact := mapCandidate(fields)
		artifact.StampAttribution(item.Attribution, v.now())
		artifacts = append(artifacts, artifact)
	}
	return artifacts
}

func missingRequiredFields(fields map[string]any) []string {
	var missing []string
	for _, field := range requiredFields {
		if stringField(fields, field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// enumProblems checks enumerated fields against their declared sets. It never
// drops a candidate; callers log and keep.
func enumProblems(fields map[string]any) []string {
	var problems []string
	if value := stringField(fields, "content_type"); value != "" && !isMember(value, ContentTypes) {
		problems = append(problems, fmt.Sprintf("content_type: %q", value))
	}
	if value := stringField(fields, "difficulty_level"); value != "" && !isMember(value, DifficultyLevels) {
		problems = append(problems, fmt.Sprintf("difficulty_level: %q", value))
	}
	for _, belt := range stringSliceField(fields, "belt_levels") {
		if !isMember(belt, BeltLevels) {
			problems = append(problems, fmt.Sprintf("belt_levels: %q", belt))
		}
	}
	return problems
}

func mapCandidate(fields map[string]any) Artifact {
	artifact := Artifact{
		ID:          stringField(fields, "id"),
		Title:       stringField(fields, "title"),
		Summary:     stringField(fields, "summary"),
		FullContent: stringField(fields, "full_content"),
		ContentType: stringField(fields, "content_type"),

		BeltLevels:      stringSliceField(fields, "belt_levels"),
		DifficultyLevel: stringField(fields, "difficulty_level"),
		TimeRequired:    NormalizeTimeRequired(stringField(fields, "time_required")),

		ActionablePractices: stringSliceField(fields, "actionable_practices"),
		DiscussionPrompts:   stringSliceField(fields, "discussion_prompts"),
		AIToolsMentioned:    stringSliceField(fields, "ai_tools_mentioned"),

		FamilySecurityRelevance: stringField(fields, "family_security_relevance"),
		ChildrenEducationAngle:  stringField(fields, "children_education_angle"),
		FamilyDiscussionPoints:  stringSliceField(fields, "family_discussion_points"),
		AIIntegrationPotential:  stringField(fields, "ai_integration_potential"),
	}
	artifact.fieldCount = populatedFieldCount(fields)
	return artifact
}

func populatedFieldCount(fields map[string]any) int {
	var count int
	for _, value := range fields {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(v) != "" {
				count++
			}
		case []any:
			if len(v) > 0 {
				count++
			}
		case map[string]any:
			if len(v) > 0 {
				count++
			}
		default:
			count++
		}
	}
	return count
}

// stringField pulls a trimmed string value; non-string scalars are rendered
// with fmt to tolerate generator type drift.
func stringField(fields map[string]any, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any, map[string]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// stringSliceField pulls an array of strings; a bare string is promoted to a
// one-element slice.
func stringSliceField(fields map[string]any, key string) []string {
	value, ok := fields[key]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	case []any:
		var out []string
		for _, element := range v {
			if s, ok := element.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					out = append(out, trimmed)
				}
			}
		}
		return out
	default:
		return nil
	}
}
