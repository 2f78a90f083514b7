package exam

// RoutingConfig holds the accuracy bands for adaptive module-2 routing.
// The values mirror the product's scoring model and are asserted by tests;
// change them only alongside a scoring-model decision.
type RoutingConfig struct {
	// HarderThreshold routes to the harder variant at or above this accuracy.
	HarderThreshold float64
	// EasierThreshold marks the lower band boundary. Both bands below
	// HarderThreshold currently map to the easier variant; the line is kept
	// so a middle variant can slot in without touching callers.
	EasierThreshold float64
}

// DefaultRoutingConfig returns the 70%/40% bands.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{HarderThreshold: 0.70, EasierThreshold: 0.40}
}

// Route maps a module-1 accuracy to the adaptive variant. Pure: same
// accuracy always yields the same label, and the result is never baseline.
func (c RoutingConfig) Route(accuracy float64) Difficulty {
	switch {
	case accuracy >= c.HarderThreshold:
		return DifficultyHarder
	case accuracy >= c.EasierThreshold:
		return DifficultyEasier
	default:
		return DifficultyEasier
	}
}

// moduleAccuracy computes correct/answered over a submitted module.
// No answers means accuracy 0, which routes to the easier variant.
func moduleAccuracy(answers map[string]string, questions []Question) float64 {
	if len(answers) == 0 {
		return 0
	}
	keys := make(map[string]string, len(questions))
	for _, q := range questions {
		keys[q.ID] = q.AnswerKey
	}
	correct := 0
	for qid, ans := range answers {
		if key, ok := keys[qid]; ok && ans == key {
			correct++
		}
	}
	return float64(correct) / float64(len(answers))
}
