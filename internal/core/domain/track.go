package domain

import (
	"fmt"
	"math"
	"sort"
)

// Track represents a recommendable track in the domain layer.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Album      string         // optional
	URI        string         // music-service URI used when saving to a library
	Popularity int            // 0-100, drives the fallback ordering
	Profile    EmotionProfile // authored affinity per label
}

// EmotionProfile maps labels to an affinity weight in [0,1].
type EmotionProfile map[EmotionLabel]float64

// Canonical validates the profile and returns a copy keyed by canonical
// taxonomy labels. Aliases are resolved; two keys resolving to the same
// label are rejected.
func (p EmotionProfile) Canonical() (EmotionProfile, error) {
	out := make(EmotionProfile, len(p))

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	for _, raw := range keys {
		weight := p[EmotionLabel(raw)]
		label, ok := ParseLabel(raw)
		if !ok {
			return nil, fmt.Errorf("unknown label key %q", raw)
		}
		if math.IsNaN(weight) || weight < 0 || weight > 1 {
			return nil, fmt.Errorf("weight %v for label %q is outside [0,1]", weight, raw)
		}
		if _, dup := out[label]; dup {
			return nil, fmt.Errorf("label %q appears more than once", label)
		}
		out[label] = weight
	}
	return out, nil
}
