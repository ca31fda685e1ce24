package artifact

// Enumerated field values mirror the downstream database constraints. The
// importer rejects rows outside these sets, so the validator warns loudly
// when the model drifts.

var ContentTypes = []string{
	"curriculum-war-story",
	"ai-breakthrough",
	"systematic-strategy",
	"family-wealth-builder",
	"mastery-technique",
	"mindset-hack",
	"research-method",
	"risk-lesson",
	"epic-curriculum-fail",
	"belt-progression-moment",
	"ai-integration-guide",
	"generational-wealth-wisdom",
}

var BeltLevels = []string{
	"white-belt",
	"yellow-belt",
	"orange-belt",
	"green-belt",
	"blue-belt",
	"brown-belt",
	"black-belt",
}

var DifficultyLevels = []string{
	"foundational",
	"intermediate-skill",
	"advanced-mastery",
}

var TimeRequiredValues = []string{
	"5-minutes",
	"10-minutes",
	"15-minutes",
	"30-minutes",
	"1-hour",
	"2-hours",
	"ongoing",
	"varies",
	"immediate",
	"quick-read",
	"deep-dive",
}

func isMember(value string, set []string) bool {
	for _, member := range set {
		if value == member {
			return true
		}
	}
	return false
}
