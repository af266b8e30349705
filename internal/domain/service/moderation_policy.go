package service

import (
	"togetherly/internal/domain/entity"
	"togetherly/pkg/config"
)

// ExceededAttributes lists the attributes whose score meets or exceeds its
// threshold. Missing scores never count.
func ExceededAttributes(scores *entity.ModerationScores, thresholds config.ModerationThresholds) []string {
	if scores == nil {
		return nil
	}

	checks := []struct {
		name      string
		score     *float64
		threshold float64
	}{
		{AttributeToxicity, scores.Toxicity, thresholds.Toxicity},
		{AttributeSevereToxicity, scores.SevereToxicity, thresholds.SevereToxicity},
		{AttributeInsult, scores.Insult, thresholds.Insult},
		{AttributeThreat, scores.Threat, thresholds.Threat},
		{AttributeSexualExplicit, scores.SexualExplicit, thresholds.SexualExplicit},
	}

	var exceeded []string
	for _, c := range checks {
		if c.score != nil && *c.score >= c.threshold {
			exceeded = append(exceeded, c.name)
		}
	}
	return exceeded
}

func ShouldReject(scores *entity.ModerationScores, thresholds config.ModerationThresholds) bool {
	return len(ExceededAttributes(scores, thresholds)) > 0
}
