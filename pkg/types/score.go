package types

import (
	"math"
	"time"
)

// Quality score bounds and weights. The score rewards frequently and
// recently used AI-sourced content so that popular AI results outlive
// one-off manual fallbacks.
const (
	scoreBase        = 50
	scorePerSearch   = 5
	scoreSearchCap   = 30
	scoreAIBonus     = 10
	scoreAgePenalty  = 2
	scoreAgeCap      = 20
	scoreIdlePenalty = 3
	scoreIdleCap     = 25

	ScoreMin = 0
	ScoreMax = 100
)

// QualityScore computes the retention worth of a record at the given
// instant. The result is always within [ScoreMin, ScoreMax].
func QualityScore(r *Record, now time.Time) int {
	score := float64(scoreBase)

	boost := float64(r.SearchCount * scorePerSearch)
	if boost > scoreSearchCap {
		boost = scoreSearchCap
	}
	score += boost

	if r.Source == SourceAI {
		score += scoreAIBonus
	}

	daysSinceCreated := now.Sub(r.CreatedAt).Hours() / 24
	agePenalty := daysSinceCreated * scoreAgePenalty
	if agePenalty > scoreAgeCap {
		agePenalty = scoreAgeCap
	}
	score -= agePenalty

	daysSinceAccess := now.Sub(r.LastAccessed).Hours() / 24
	idlePenalty := daysSinceAccess * scoreIdlePenalty
	if idlePenalty > scoreIdleCap {
		idlePenalty = scoreIdleCap
	}
	score -= idlePenalty

	// Round to the nearest integer so a record penalized by mere
	// milliseconds of age keeps its nominal score.
	rounded := int(math.Round(score))
	if rounded < ScoreMin {
		return ScoreMin
	}
	if rounded > ScoreMax {
		return ScoreMax
	}
	return rounded
}
