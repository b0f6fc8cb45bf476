package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// GameID identifies a generated game and the leaderboard that belongs to it.
// Ids are generated externally and treated as opaque.
type GameID string

// Difficulty is the free-form difficulty hint passed to the generator.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Entry is one player's latest score on a game leaderboard.
type Entry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// NormalizeGameID trims surrounding whitespace and rejects empty ids.
func NormalizeGameID(id GameID) (GameID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", fmt.Errorf("%w: empty game id", ErrInvalidInput)
	}
	return GameID(s), nil
}

// NormalizePlayerName trims the submitted name. Names are not lowercased:
// the leaderboard displays them as typed.
func NormalizePlayerName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", fmt.Errorf("%w: empty player name", ErrInvalidInput)
	}
	return s, nil
}

// ValidateScore rejects NaN and infinities.
func ValidateScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("%w: score must be a finite number", ErrInvalidInput)
	}
	return nil
}

// IsInvalidInput reports whether err was caused by caller input.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
