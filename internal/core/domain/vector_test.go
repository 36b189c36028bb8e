package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	tests := map[string]struct {
		raw    string
		want   EmotionLabel
		wantOK bool
	}{
		"canonical":          {raw: "joy", want: LabelJoy, wantOK: true},
		"upper case":         {raw: "SADNESS", want: LabelSadness, wantOK: true},
		"padded":             {raw: "  fear \n", want: LabelFear, wantOK: true},
		"alias":              {raw: "Happy", want: LabelJoy, wantOK: true},
		"separators dropped": {raw: "sur-prise", want: LabelSurprise, wantOK: true},
		"unknown bucket":     {raw: "unknown", want: LabelUnknown, wantOK: true},
		"not a label":        {raw: "boredom", wantOK: false},
		"empty":              {raw: "", wantOK: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseLabel(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	tests := map[string]struct {
		policy   UnknownLabelPolicy
		scores   []EmotionScore
		want     map[EmotionLabel]float64
		wantErr  error
		errMatch string
	}{
		"empty input yields zero vector": {
			scores: nil,
			want:   map[EmotionLabel]float64{},
		},
		"duplicates collapse via max": {
			scores: []EmotionScore{{Label: "joy", Confidence: 0.3}, {Label: "joy", Confidence: 0.7}},
			want:   map[EmotionLabel]float64{LabelJoy: 0.7},
		},
		"alias and canonical collapse together": {
			scores: []EmotionScore{{Label: "happy", Confidence: 0.9}, {Label: "joy", Confidence: 0.4}},
			want:   map[EmotionLabel]float64{LabelJoy: 0.9},
		},
		"multiple labels kept": {
			scores: []EmotionScore{{Label: "joy", Confidence: 0.8}, {Label: "sadness", Confidence: 0.2}},
			want:   map[EmotionLabel]float64{LabelJoy: 0.8, LabelSadness: 0.2},
		},
		"boundary confidences accepted": {
			scores: []EmotionScore{{Label: "fear", Confidence: 0}, {Label: "anger", Confidence: 1}},
			want:   map[EmotionLabel]float64{LabelAnger: 1},
		},
		"confidence above one rejected": {
			scores:   []EmotionScore{{Label: "joy", Confidence: 1.2}},
			wantErr:  ErrInvalidInput,
			errMatch: "outside [0,1]",
		},
		"negative confidence rejected": {
			scores:  []EmotionScore{{Label: "joy", Confidence: -0.1}},
			wantErr: ErrInvalidInput,
		},
		"NaN rejected": {
			scores:  []EmotionScore{{Label: "joy", Confidence: math.NaN()}},
			wantErr: ErrInvalidInput,
		},
		"unknown label rejected by default": {
			scores:   []EmotionScore{{Label: "joyy", Confidence: 0.5}},
			wantErr:  ErrUnknownLabel,
			errMatch: `did you mean "joy"`,
		},
		"unknown label folded into bucket": {
			policy: UnknownLabelBucket,
			scores: []EmotionScore{{Label: "boredom", Confidence: 0.4}, {Label: "ennui", Confidence: 0.6}},
			want:   map[EmotionLabel]float64{LabelUnknown: 0.6},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := NewNormalizer(tt.policy).Normalize(tt.scores)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				if tt.errMatch != "" {
					assert.Contains(t, err.Error(), tt.errMatch)
				}
				return
			}
			require.NoError(t, err)
			for _, l := range Taxonomy() {
				assert.Equal(t, tt.want[l], got.Get(l), "label %s", l)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := [][]EmotionScore{
		nil,
		{{Label: "joy", Confidence: 0.3}, {Label: "joy", Confidence: 0.7}},
		{{Label: "Sad", Confidence: 0.6}, {Label: "anger", Confidence: 0.1}, {Label: "neutral", Confidence: 0}},
		{{Label: "surprise", Confidence: 1}, {Label: "love", Confidence: 0.25}, {Label: "fear", Confidence: 0.5}},
	}

	for _, in := range inputs {
		first, err := Normalize(in)
		require.NoError(t, err)
		second, err := Normalize(first.Scores())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestNormalize_DuplicateEqualsMax(t *testing.T) {
	a, err := Normalize([]EmotionScore{{Label: "joy", Confidence: 0.3}, {Label: "joy", Confidence: 0.7}})
	require.NoError(t, err)
	b, err := Normalize([]EmotionScore{{Label: "joy", Confidence: 0.7}})
	require.NoError(t, err)
	assert.True(t, a == b)
}

func TestEmotionVector_Accessors(t *testing.T) {
	v, err := Normalize([]EmotionScore{
		{Label: "joy", Confidence: 0.8},
		{Label: "sadness", Confidence: 0.2},
		{Label: "love", Confidence: 0.8},
	})
	require.NoError(t, err)

	assert.False(t, v.IsZero())
	assert.True(t, EmotionVector{}.IsZero())
	assert.Equal(t, []EmotionLabel{LabelJoy, LabelLove, LabelSadness}, v.Active(0))
	assert.Equal(t, []EmotionLabel{LabelJoy, LabelLove}, v.Active(0.5))
	assert.Equal(t, 0.0, v.Get("not-a-label"))

	label, conf, ok := v.Dominant()
	assert.True(t, ok)
	assert.Equal(t, LabelJoy, label, "ties resolve to taxonomy order")
	assert.Equal(t, 0.8, conf)

	_, _, ok = EmotionVector{}.Dominant()
	assert.False(t, ok)

	profile := EmotionProfile{LabelJoy: 0.9, LabelSadness: 0.1}
	assert.InDelta(t, 0.74, v.Dot(profile), 1e-9)
}

func TestSuggestLabel(t *testing.T) {
	got, ok := SuggestLabel("sadnes")
	assert.True(t, ok)
	assert.Equal(t, LabelSadness, got)

	_, ok = SuggestLabel("xylophone")
	assert.False(t, ok)
}
