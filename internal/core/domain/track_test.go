package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmotionProfile_Canonical(t *testing.T) {
	tests := []struct {
		name     string
		profile  EmotionProfile
		want     EmotionProfile
		errMatch string
	}{
		{
			name:    "canonical keys pass through",
			profile: EmotionProfile{"joy": 0.9, "sadness": 0.1},
			want:    EmotionProfile{LabelJoy: 0.9, LabelSadness: 0.1},
		},
		{
			name:    "aliases resolved",
			profile: EmotionProfile{"Happy": 0.4, "calm": 0},
			want:    EmotionProfile{LabelJoy: 0.4, LabelNeutral: 0},
		},
		{
			name:    "empty profile",
			profile: EmotionProfile{},
			want:    EmotionProfile{},
		},
		{
			name:     "unknown key",
			profile:  EmotionProfile{"boredom": 0.5},
			errMatch: `unknown label key "boredom"`,
		},
		{
			name:     "weight above one",
			profile:  EmotionProfile{"joy": 1.5},
			errMatch: "outside [0,1]",
		},
		{
			name:     "NaN weight",
			profile:  EmotionProfile{"joy": math.NaN()},
			errMatch: "outside [0,1]",
		},
		{
			name:     "alias collides with canonical key",
			profile:  EmotionProfile{"joy": 0.5, "happy": 0.6},
			errMatch: "more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.profile.Canonical()
			if tt.errMatch != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	err := WrapError(KindUpstream, assert.AnError, "classifier failed")

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindUpstream, kind)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "classifier failed: "+assert.AnError.Error(), err.Error())

	unknown := NewError(KindUnknownLabel, "unknown emotion label %q", "meh")
	assert.ErrorIs(t, unknown, ErrUnknownLabel)
	assert.ErrorIs(t, unknown, ErrInvalidInput)

	_, ok = KindOf(assert.AnError)
	assert.False(t, ok)
}
