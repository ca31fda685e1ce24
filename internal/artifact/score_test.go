package artifact

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func completeArtifact() Artifact {
	return Artifact{
		ID:          "s1",
		Title:       "Title",
		Summary:     "Summary",
		FullContent: strings.Repeat("x", 1200),
		ContentType: "mindset-hack",

		ActionablePractices: []string{"do the thing"},
		DiscussionPrompts:   []string{"what would you do"},
		AIToolsMentioned:    []string{"a screener"},

		FamilySecurityRelevance: "relevant",
		ChildrenEducationAngle:  "teachable",
		FamilyDiscussionPoints:  []string{"talk about it"},
	}
}

func TestScoreFullArtifactHitsCeiling(t *testing.T) {
	if got := Score(completeArtifact()); !almostEqual(got, 10.0) {
		t.Fatalf("expected 10.0, got %v", got)
	}
}

func TestScoreEmptyArtifactIsZero(t *testing.T) {
	if got := Score(Artifact{}); !almostEqual(got, 0.0) {
		t.Fatalf("expected 0.0, got %v", got)
	}
}

func TestScoreBodyLengthBand(t *testing.T) {
	base := completeArtifact()

	short := base
	short.FullContent = strings.Repeat("x", 400)
	medium := base
	medium.FullContent = strings.Repeat("x", 700)

	if got := Score(short); !almostEqual(got, 8.0) {
		t.Fatalf("short body: expected 8.0, got %v", got)
	}
	if got := Score(medium); !almostEqual(got, 9.0) {
		t.Fatalf("medium body: expected 9.0, got %v", got)
	}

	// Longer is not better past the band.
	huge := base
	huge.FullContent = strings.Repeat("x", 50000)
	if got := Score(huge); !almostEqual(got, 10.0) {
		t.Fatalf("huge body: expected 10.0, got %v", got)
	}
}

func TestScoreEnrichmentIsProportional(t *testing.T) {
	a := completeArtifact()
	a.DiscussionPrompts = nil
	a.ActionablePractices = nil
	// One of three enrichment fields present.
	if got := Score(a); !almostEqual(got, 10.0-4.0/3.0) {
		t.Fatalf("expected %v, got %v", 10.0-4.0/3.0, got)
	}
}

func TestScoreAIIntegrationFallback(t *testing.T) {
	a := completeArtifact()
	a.AIToolsMentioned = nil
	a.AIIntegrationPotential = "could automate the checklist"

	// Losing ai_tools_mentioned drops one enrichment third and downgrades
	// the integration weight from 2.0 to 1.0.
	want := 2.0 + 2.0 + (2.0/3.0)*2.0 + 2.0 + 1.0
	if got := Score(a); !almostEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestScoreMissingRequiredFieldLosesCompletionWeight(t *testing.T) {
	a := completeArtifact()
	a.Summary = ""
	if got := Score(a); !almostEqual(got, 8.0) {
		t.Fatalf("expected 8.0, got %v", got)
	}
}

func TestScoreRichnessBonus(t *testing.T) {
	sparse := Artifact{
		ID:          "s1",
		Title:       "Title",
		Summary:     "Summary",
		FullContent: strings.Repeat("x", 1200),
		ContentType: "mindset-hack",
	}
	rich := sparse
	rich.fieldCount = 12

	if got, want := Score(rich)-Score(sparse), 0.5; !almostEqual(got, want) {
		t.Fatalf("expected a %v richness bonus, got %v", want, got)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	a := completeArtifact()
	first := Score(a)
	for i := 0; i < 50; i++ {
		if got := Score(a); got != first {
			t.Fatalf("score changed between calls: %v vs %v", first, got)
		}
	}
}
