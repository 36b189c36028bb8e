package domain

import (
	"fmt"
	"math"
)

// EmotionScore is one (label, confidence) pair as emitted by a classifier.
// Label may hold raw classifier text until it has been normalized.
type EmotionScore struct {
	Label      EmotionLabel `json:"label" bson:"label"`
	Confidence float64      `json:"confidence" bson:"confidence"`
}

// EmotionVector holds one confidence per taxonomy label, in taxonomy order.
// The zero value is the all-zero vector. Vectors are comparable with ==.
type EmotionVector [labelCount]float64

// Get returns the weight for l, or 0 for labels outside the taxonomy.
func (v EmotionVector) Get(l EmotionLabel) float64 {
	i, ok := labelIndex[l]
	if !ok {
		return 0
	}
	return v[i]
}

// IsZero reports whether no label carries any weight.
func (v EmotionVector) IsZero() bool {
	return v == EmotionVector{}
}

// Active returns the labels whose weight is strictly above threshold, in
// taxonomy order.
func (v EmotionVector) Active(threshold float64) []EmotionLabel {
	out := make([]EmotionLabel, 0, labelCount)
	for i, w := range v {
		if w > threshold {
			out = append(out, taxonomy[i])
		}
	}
	return out
}

// Scores returns the nonzero entries as a score sequence in taxonomy order.
// Normalizing the result yields v again.
func (v EmotionVector) Scores() []EmotionScore {
	out := make([]EmotionScore, 0, labelCount)
	for i, w := range v {
		if w > 0 {
			out = append(out, EmotionScore{Label: taxonomy[i], Confidence: w})
		}
	}
	return out
}

// Dominant returns the highest weighted label. Ties go to the label that
// comes first in taxonomy order. ok is false for the zero vector.
func (v EmotionVector) Dominant() (label EmotionLabel, confidence float64, ok bool) {
	for i, w := range v {
		if w > confidence {
			label, confidence, ok = taxonomy[i], w, true
		}
	}
	return label, confidence, ok
}

// Dot returns the dot product of v with a track's affinity profile.
func (v EmotionVector) Dot(p EmotionProfile) float64 {
	var sum float64
	for i, w := range v {
		if w == 0 {
			continue
		}
		sum += w * p[taxonomy[i]]
	}
	return sum
}

// UnknownLabelPolicy decides what the normalizer does with labels that are
// not part of the taxonomy.
type UnknownLabelPolicy string

const (
	// UnknownLabelReject fails normalization with KindUnknownLabel.
	UnknownLabelReject UnknownLabelPolicy = "reject"
	// UnknownLabelBucket folds unrecognised labels into LabelUnknown.
	UnknownLabelBucket UnknownLabelPolicy = "bucket"
)

// Valid reports whether p is a known policy.
func (p UnknownLabelPolicy) Valid() bool {
	return p == UnknownLabelReject || p == UnknownLabelBucket
}

// Normalizer turns raw classifier output into an EmotionVector.
type Normalizer struct {
	Policy UnknownLabelPolicy
}

// NewNormalizer returns a Normalizer using policy, or UnknownLabelReject when
// policy is empty.
func NewNormalizer(policy UnknownLabelPolicy) Normalizer {
	if policy == "" {
		policy = UnknownLabelReject
	}
	return Normalizer{Policy: policy}
}

// Normalize collapses duplicate labels by keeping their maximum confidence.
// Labels absent from scores get 0, so an empty sequence yields the zero
// vector.
func (n Normalizer) Normalize(scores []EmotionScore) (EmotionVector, error) {
	var v EmotionVector
	for i, s := range scores {
		if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
			return EmotionVector{}, NewError(KindInvalidInput,
				"confidence %v for label %q at position %d is outside [0,1]", s.Confidence, s.Label, i)
		}

		label, ok := ParseLabel(string(s.Label))
		if !ok {
			if n.Policy != UnknownLabelBucket {
				return EmotionVector{}, unknownLabelError(string(s.Label))
			}
			label = LabelUnknown
		}

		idx := labelIndex[label]
		if s.Confidence > v[idx] {
			v[idx] = s.Confidence
		}
	}
	return v, nil
}

// Normalize runs the default rejecting normalizer.
func Normalize(scores []EmotionScore) (EmotionVector, error) {
	return NewNormalizer(UnknownLabelReject).Normalize(scores)
}

func unknownLabelError(raw string) *Error {
	msg := fmt.Sprintf("unknown emotion label %q", raw)
	if suggestion, ok := SuggestLabel(raw); ok {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, suggestion)
	}
	return &Error{Kind: KindUnknownLabel, Message: msg}
}
