package core

import "fmt"

// ScoreRule decides whether a submitted score is acceptable for a game.
type ScoreRule interface {
	Check(game GameID, score float64) error
}

// FiniteRule rejects NaN and infinite scores.
type FiniteRule struct{}

func (FiniteRule) Check(_ GameID, score float64) error { return ValidateScore(score) }

// NonNegativeRule rejects scores below zero.
type NonNegativeRule struct{}

func (NonNegativeRule) Check(_ GameID, score float64) error {
	if score < 0 {
		return fmt.Errorf("%w: score must not be negative", ErrInvalidInput)
	}
	return nil
}

// MaxScoreRule rejects scores above Max. Generated games award 100 points per
// question, so a ceiling is the only plausibility check available server-side.
type MaxScoreRule struct{ Max float64 }

func (r MaxScoreRule) Check(_ GameID, score float64) error {
	if r.Max > 0 && score > r.Max {
		return fmt.Errorf("%w: score %g exceeds maximum %g", ErrInvalidInput, score, r.Max)
	}
	return nil
}
