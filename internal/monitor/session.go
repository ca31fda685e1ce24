package monitor

import "time"

// Path identifies which generation path produced a session.
type Path string

const (
	PathBaseline             Path = "baseline"
	PathExperimental         Path = "experimental"
	PathExperimentalFallback Path = "experimental-fallback"
)

// Session is one record per generation attempt. Sessions are append-only;
// they are written once and only ever aggregated.
type Session struct {
	ID            string
	WorkItemID    string
	Path          Path
	Duration      time.Duration
	ArtifactCount int
	QualityScores []float64
	AvgQuality    float64
	ErrorOccurred bool
	CreatedAt     time.Time
}

func meanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}
