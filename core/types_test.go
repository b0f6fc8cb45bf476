package core

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeGameID(t *testing.T) {
	id, err := NormalizeGameID(" abc123 ")
	if err != nil || id != "abc123" {
		t.Fatalf("got %v %v", id, err)
	}
	if _, err := NormalizeGameID("   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNormalizePlayerName(t *testing.T) {
	name, err := NormalizePlayerName("  Zoe ")
	if err != nil || name != "Zoe" {
		t.Fatalf("got %q %v", name, err)
	}
	if _, err := NormalizePlayerName(""); !IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestValidateScore(t *testing.T) {
	if err := ValidateScore(-12.5); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, s := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := ValidateScore(s); !IsInvalidInput(err) {
			t.Fatalf("expected invalid input for %v", s)
		}
	}
}

func TestScoreRules(t *testing.T) {
	if err := (MaxScoreRule{Max: 1000}).Check("g", 1000); err != nil {
		t.Fatalf("boundary should pass: %v", err)
	}
	if err := (MaxScoreRule{Max: 1000}).Check("g", 1001); !IsInvalidInput(err) {
		t.Fatal("expected ceiling violation")
	}
	if err := (MaxScoreRule{}).Check("g", 1e12); err != nil {
		t.Fatalf("zero max disables the rule: %v", err)
	}
	if err := (NonNegativeRule{}).Check("g", -1); !IsInvalidInput(err) {
		t.Fatal("expected negative score rejection")
	}
	if err := (FiniteRule{}).Check("g", math.NaN()); !IsInvalidInput(err) {
		t.Fatal("expected NaN rejection")
	}
}
