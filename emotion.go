package main

import (
	"fmt"
	"strings"
)

// Likelihood is a qualitative confidence value reported by the face-analysis API
type Likelihood string

// Likelihood scale, lowest to highest
const (
	Unknown      Likelihood = "UNKNOWN"
	VeryUnlikely Likelihood = "VERY_UNLIKELY"
	Unlikely     Likelihood = "UNLIKELY"
	Possible     Likelihood = "POSSIBLE"
	Likely       Likelihood = "LIKELY"
	VeryLikely   Likelihood = "VERY_LIKELY"
)

var likelihoodScale = []Likelihood{Unknown, VeryUnlikely, Unlikely, Possible, Likely, VeryLikely}

// ParseLikelihood normalizes a likelihood string, case-insensitively
func ParseLikelihood(s string) (Likelihood, error) {
	l := Likelihood(strings.ToUpper(strings.TrimSpace(s)))
	if l.Rank() < 0 {
		return "", fmt.Errorf("unknown likelihood %q", s)
	}
	return l, nil
}

// Rank returns the position of l on the scale, or -1 if l is not on it
func (l Likelihood) Rank() int {
	for i, v := range likelihoodScale {
		if strings.EqualFold(string(l), string(v)) {
			return i
		}
	}
	return -1
}

// Active reports whether l is above the "unlikely" threshold.
// Anything that is not very_unlikely, unlikely or unknown counts.
func (l Likelihood) Active() bool {
	switch strings.ToLower(string(l)) {
	case "very_unlikely", "unlikely", "unknown":
		return false
	}
	return true
}

// EmotionLabel is the single emotion derived from a set of scores
type EmotionLabel string

const (
	LabelHappy     EmotionLabel = "happy"
	LabelSad       EmotionLabel = "sad"
	LabelAngry     EmotionLabel = "angry"
	LabelSurprised EmotionLabel = "surprised"
	LabelNeutral   EmotionLabel = "neutral"
)

// EmotionScores holds one likelihood per emotion category
type EmotionScores struct {
	Joy      Likelihood `json:"joy"`
	Sorrow   Likelihood `json:"sorrow"`
	Anger    Likelihood `json:"anger"`
	Surprise Likelihood `json:"surprise"`
}

// Validate checks that every category carries a value from the likelihood scale
func (s EmotionScores) Validate() error {
	fields := []struct {
		name  string
		value Likelihood
	}{
		{"joy", s.Joy},
		{"sorrow", s.Sorrow},
		{"anger", s.Anger},
		{"surprise", s.Surprise},
	}

	var bad []string
	for _, f := range fields {
		if f.value.Rank() < 0 {
			bad = append(bad, fmt.Sprintf("%s=%q", f.name, string(f.value)))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("malformed emotion scores: %s", strings.Join(bad, ", "))
	}
	return nil
}

// ReduceEmotion maps scores to a label. Categories are checked in priority
// order joy, sorrow, anger, surprise and the first active one wins.
func ReduceEmotion(s EmotionScores) EmotionLabel {
	switch {
	case s.Joy.Active():
		return LabelHappy
	case s.Sorrow.Active():
		return LabelSad
	case s.Anger.Active():
		return LabelAngry
	case s.Surprise.Active():
		return LabelSurprised
	default:
		return LabelNeutral
	}
}
