package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scores(joy, sorrow, anger, surprise Likelihood) EmotionScores {
	return EmotionScores{Joy: joy, Sorrow: sorrow, Anger: anger, Surprise: surprise}
}

func TestReduceEmotion(t *testing.T) {
	tests := []struct {
		name   string
		scores EmotionScores
		want   EmotionLabel
	}{
		{"joy wins", scores(VeryLikely, VeryUnlikely, VeryUnlikely, VeryUnlikely), LabelHappy},
		{"joy with unknown anger", scores(VeryLikely, Unlikely, Unknown, Unlikely), LabelHappy},
		{"likely surprise", scores(Unlikely, Unlikely, Unlikely, Likely), LabelSurprised},
		{"possible counts as active", scores(Possible, VeryUnlikely, VeryUnlikely, VeryUnlikely), LabelHappy},
		{"sorrow", scores(VeryUnlikely, Likely, VeryUnlikely, VeryUnlikely), LabelSad},
		{"anger", scores(Unlikely, Unlikely, VeryLikely, Unlikely), LabelAngry},
		{"surprise only", scores(VeryUnlikely, VeryUnlikely, Unlikely, VeryLikely), LabelSurprised},
		{"joy beats sorrow", scores(Likely, VeryLikely, VeryUnlikely, VeryUnlikely), LabelHappy},
		{"sorrow beats anger", scores(VeryUnlikely, Possible, VeryLikely, VeryUnlikely), LabelSad},
		{"anger beats surprise", scores(VeryUnlikely, VeryUnlikely, Possible, VeryLikely), LabelAngry},
		{"all inactive", scores(VeryUnlikely, Unlikely, Unknown, VeryUnlikely), LabelNeutral},
		{"lower case values", scores("very_unlikely", "likely", "unlikely", "unknown"), LabelSad},
		{"mixed case inactive", scores("Very_Unlikely", "UNLIKELY", "Unknown", "unlikely"), LabelNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReduceEmotion(tt.scores))
		})
	}
}

func TestReduceEmotionIsPure(t *testing.T) {
	s := scores(Likely, VeryLikely, Possible, Likely)
	first := ReduceEmotion(s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ReduceEmotion(s))
	}
	assert.Equal(t, scores(Likely, VeryLikely, Possible, Likely), s)
}

func TestLikelihoodActive(t *testing.T) {
	active := []Likelihood{Possible, Likely, VeryLikely, "likely"}
	inactive := []Likelihood{VeryUnlikely, Unlikely, Unknown, "unknown"}

	for _, l := range active {
		assert.True(t, l.Active(), string(l))
	}
	for _, l := range inactive {
		assert.False(t, l.Active(), string(l))
	}
}

func TestParseLikelihood(t *testing.T) {
	l, err := ParseLikelihood(" very_likely ")
	require.NoError(t, err)
	assert.Equal(t, VeryLikely, l)
	assert.Equal(t, 5, l.Rank())

	_, err = ParseLikelihood("SOMEWHAT")
	assert.Error(t, err)
	assert.Equal(t, -1, Likelihood("SOMEWHAT").Rank())
}

func TestEmotionScoresValidate(t *testing.T) {
	assert.NoError(t, scores(VeryLikely, "unlikely", Unknown, Possible).Validate())

	err := scores("", VeryUnlikely, "MAYBE", VeryUnlikely).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed emotion scores")
	assert.Contains(t, err.Error(), `joy=""`)
	assert.Contains(t, err.Error(), `anger="MAYBE"`)
	assert.NotContains(t, err.Error(), "sorrow")
}
