package engine

import "math"

// ScoringConfig holds the tunable battle-end scoring constants.
type ScoringConfig struct {
	AccuracyPoints int     // full-accuracy base, scaled by difficulty weight
	ComboPoints    int     // points per unit of max combo
	TimeBonusMax   int     // max bonus for beating the target answer time
	ComboCap       int     // max combo counted toward the bonus; 0 = uncapped
	BaseMultiplier float64 // reserved for event scoring; 1.0 in production
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		AccuracyPoints: 1000,
		ComboPoints:    50,
		TimeBonusMax:   200,
		ComboCap:       20,
		BaseMultiplier: 1.0,
	}
}

// FinalScore computes the points awarded at battle end. Deterministic, and
// monotonic: increasing in accuracy and max combo, decreasing in average
// answer time relative to the target. Independent of in-battle HP math.
func FinalScore(cfg ScoringConfig, correct, total, maxCombo int, avgAnswerSeconds, targetSeconds, difficultyWeight float64) int {
	if total <= 0 {
		return 0
	}
	if difficultyWeight <= 0 {
		difficultyWeight = 1.0
	}
	if cfg.BaseMultiplier <= 0 {
		cfg.BaseMultiplier = 1.0
	}

	accuracy := float64(correct) / float64(total)
	score := accuracy * float64(cfg.AccuracyPoints) * difficultyWeight

	combo := maxCombo
	if cfg.ComboCap > 0 && combo > cfg.ComboCap {
		combo = cfg.ComboCap
	}
	score += float64(combo * cfg.ComboPoints)

	if targetSeconds > 0 {
		ratio := (targetSeconds - avgAnswerSeconds) / targetSeconds
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		score += ratio * float64(cfg.TimeBonusMax)
	}

	return int(math.Floor(score * cfg.BaseMultiplier))
}
