package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

// EmotionClassifier turns free text into raw (label, confidence) pairs.
// Labels may fall outside the taxonomy; the normalizer decides what to do
// with them.
type EmotionClassifier interface {
	Classify(ctx context.Context, text string) ([]domain.EmotionScore, error)
}
