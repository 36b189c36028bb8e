package domain

import (
	"strings"
	"unicode"
)

// EmotionLabel is one category of the closed emotion taxonomy.
type EmotionLabel string

const (
	LabelAnger    EmotionLabel = "anger"
	LabelDisgust  EmotionLabel = "disgust"
	LabelFear     EmotionLabel = "fear"
	LabelJoy      EmotionLabel = "joy"
	LabelLove     EmotionLabel = "love"
	LabelNeutral  EmotionLabel = "neutral"
	LabelSadness  EmotionLabel = "sadness"
	LabelSurprise EmotionLabel = "surprise"
	// LabelUnknown is the bucket that unrecognised classifier labels collapse
	// into when the normalizer runs with UnknownLabelBucket.
	LabelUnknown EmotionLabel = "unknown"
)

// taxonomy is the canonical label order. EmotionVector positions follow it.
var taxonomy = [...]EmotionLabel{
	LabelAnger,
	LabelDisgust,
	LabelFear,
	LabelJoy,
	LabelLove,
	LabelNeutral,
	LabelSadness,
	LabelSurprise,
	LabelUnknown,
}

const labelCount = len(taxonomy)

var labelIndex = func() map[EmotionLabel]int {
	m := make(map[EmotionLabel]int, labelCount)
	for i, l := range taxonomy {
		m[l] = i
	}
	return m
}()

// aliases maps common classifier spellings onto taxonomy labels.
var aliases = map[string]EmotionLabel{
	"angry":     LabelAnger,
	"rage":      LabelAnger,
	"annoyance": LabelAnger,
	"disgusted": LabelDisgust,
	"afraid":    LabelFear,
	"scared":    LabelFear,
	"anxious":   LabelFear,
	"fearful":   LabelFear,
	"happy":     LabelJoy,
	"happiness": LabelJoy,
	"joyful":    LabelJoy,
	"excited":   LabelJoy,
	"loving":    LabelLove,
	"romantic":  LabelLove,
	"calm":      LabelNeutral,
	"sad":       LabelSadness,
	"sorrow":    LabelSadness,
	"grief":     LabelSadness,
	"surprised": LabelSurprise,
	"amazed":    LabelSurprise,
}

// Taxonomy returns the labels in canonical order.
func Taxonomy() []EmotionLabel {
	out := make([]EmotionLabel, labelCount)
	copy(out, taxonomy[:])
	return out
}

// Valid reports whether l is a canonical taxonomy label.
func (l EmotionLabel) Valid() bool {
	_, ok := labelIndex[l]
	return ok
}

func (l EmotionLabel) String() string {
	return string(l)
}

// ParseLabel resolves raw classifier output to a taxonomy label. Matching
// ignores case, surrounding whitespace and separator characters, and accepts
// the alias table.
func ParseLabel(raw string) (EmotionLabel, bool) {
	key := canonicalLabelKey(raw)
	if key == "" {
		return "", false
	}
	if l := EmotionLabel(key); l.Valid() {
		return l, true
	}
	if l, ok := aliases[key]; ok {
		return l, true
	}
	return "", false
}

func canonicalLabelKey(raw string) string {
	var out strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if unicode.IsLetter(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}
