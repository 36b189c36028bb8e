package domain

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
)

// EmotionInput is what a caller hands to the service: either a single
// dominant label or a full score sequence.
type EmotionInput struct {
	Label  EmotionLabel
	Scores []EmotionScore
}

// BareLabel builds an input holding one dominant label.
func BareLabel(label EmotionLabel) EmotionInput {
	return EmotionInput{Label: label}
}

// ScoreSequence builds an input from classifier scores.
func ScoreSequence(scores ...EmotionScore) EmotionInput {
	return EmotionInput{Scores: scores}
}

// IsEmpty reports whether the input names no emotion at all.
func (in EmotionInput) IsEmpty() bool {
	return in.Label == "" && len(in.Scores) == 0
}

// AsScores returns the input as a score sequence. A bare label becomes a
// one-element sequence with confidence 1.0.
func (in EmotionInput) AsScores() []EmotionScore {
	if in.Label != "" {
		return []EmotionScore{{Label: in.Label, Confidence: 1.0}}
	}
	out := make([]EmotionScore, len(in.Scores))
	copy(out, in.Scores)
	return out
}

// UnmarshalJSON accepts the shapes documented on ParseEmotionInput.
func (in *EmotionInput) UnmarshalJSON(data []byte) error {
	parsed, err := ParseEmotionInput(data)
	if err != nil {
		return err
	}
	*in = parsed
	return nil
}

// ParseEmotionInput decodes any of:
//
//	"joy"
//	{"label": "joy", "confidence": 0.8}
//	[{"label": "joy", "confidence": 0.8}, {"label": "sadness", "confidence": 0.2}]
//	[["joy", 0.8], ["sadness", 0.2]]
//
// null or an empty document yields an empty input.
func ParseEmotionInput(data []byte) (EmotionInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return EmotionInput{}, nil
	}

	switch trimmed[0] {
	case '"':
		var label string
		if err := json.Unmarshal(trimmed, &label); err != nil {
			return EmotionInput{}, WrapError(KindInvalidInput, err, "emotion: malformed label")
		}
		if strings.TrimSpace(label) == "" {
			return EmotionInput{}, NewError(KindInvalidInput, "emotion: label is empty")
		}
		return BareLabel(EmotionLabel(label)), nil
	case '{':
		score, err := parseScoreObject(trimmed)
		if err != nil {
			return EmotionInput{}, err
		}
		return ScoreSequence(score), nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return EmotionInput{}, WrapError(KindInvalidInput, err, "emotion: malformed score list")
		}
		scores := make([]EmotionScore, 0, len(elems))
		for _, elem := range elems {
			score, err := parseScoreElement(elem)
			if err != nil {
				return EmotionInput{}, err
			}
			scores = append(scores, score)
		}
		return ScoreSequence(scores...), nil
	default:
		return EmotionInput{}, NewError(KindInvalidInput, "emotion: expected a label, a score object or a list of scores")
	}
}

type scoreObject struct {
	Label      *string  `json:"label"`
	Confidence *float64 `json:"confidence"`
}

func parseScoreElement(elem json.RawMessage) (EmotionScore, error) {
	trimmed := bytes.TrimSpace(elem)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return parseScorePair(trimmed)
	}
	return parseScoreObject(trimmed)
}

func parseScoreObject(data []byte) (EmotionScore, error) {
	var obj scoreObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return EmotionScore{}, WrapError(KindInvalidInput, err, "emotion: malformed score")
	}
	if obj.Label == nil || strings.TrimSpace(*obj.Label) == "" {
		return EmotionScore{}, NewError(KindInvalidInput, "emotion: score is missing a label")
	}
	if obj.Confidence == nil {
		return EmotionScore{}, NewError(KindInvalidInput, "emotion: score for %q is missing a confidence", *obj.Label)
	}
	return EmotionScore{Label: EmotionLabel(*obj.Label), Confidence: *obj.Confidence}, nil
}

func parseScorePair(data []byte) (EmotionScore, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		return EmotionScore{}, NewError(KindInvalidInput, "emotion: score pair must be [label, confidence]")
	}
	var label string
	if err := json.Unmarshal(pair[0], &label); err != nil || strings.TrimSpace(label) == "" {
		return EmotionScore{}, NewError(KindInvalidInput, "emotion: score pair has no label")
	}
	var confidence float64
	if err := json.Unmarshal(pair[1], &confidence); err != nil {
		return EmotionScore{}, NewError(KindInvalidInput, "emotion: score pair for %q has no numeric confidence", label)
	}
	return EmotionScore{Label: EmotionLabel(label), Confidence: confidence}, nil
}
