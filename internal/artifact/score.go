package artifact

const maxScore = 10.0

// Score rates an artifact in [0,10]. It is a pure function of artifact
// content so live monitoring and offline replay produce identical numbers.
//
// Weights: required-field completeness 2.0, body length band 2.0 (full above
// 1000 characters, half above 500), enrichment fields 2.0 proportional,
// family-audience fields 2.0 proportional, AI-integration coverage 2.0, plus
// a 0.5 richness bonus for candidates carrying more than 10 populated
// fields. Capped at 10.
func Score(a Artifact) float64 {
	var score float64

	if a.ID != "" && a.Title != "" && a.Summary != "" && a.FullContent != "" && a.ContentType != "" {
		score += 2.0
	}

	switch length := len(a.FullContent); {
	case length > 1000:
		score += 2.0
	case length > 500:
		score += 1.0
	}

	var enrichment int
	if len(a.ActionablePractices) > 0 {
		enrichment++
	}
	if len(a.DiscussionPrompts) > 0 {
		enrichment++
	}
	if len(a.AIToolsMentioned) > 0 {
		enrichment++
	}
	score += float64(enrichment) / 3.0 * 2.0

	var family int
	if a.FamilySecurityRelevance != "" {
		family++
	}
	if a.ChildrenEducationAngle != "" {
		family++
	}
	if len(a.FamilyDiscussionPoints) > 0 {
		family++
	}
	score += float64(family) / 3.0 * 2.0

	switch {
	case len(a.AIToolsMentioned) > 0:
		score += 2.0
	case a.AIIntegrationPotential != "":
		score += 1.0
	}

	if a.FieldCount() > 10 {
		score += 0.5
	}

	if score > maxScore {
		return maxScore
	}
	return score
}
