package ollama

import (
	"context"
	"os"
	"testing"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

// TestClient_Classify_Integration tests against a live Ollama instance.
// This test is skipped unless RUN_AI_TESTS=true is set.
func TestClient_Classify_Integration(t *testing.T) {
	if os.Getenv("RUN_AI_TESTS") != "true" {
		t.Skip("Skipping AI-dependent test (set RUN_AI_TESTS=true to enable)")
	}

	ollamaHost := os.Getenv("OLLAMA_HOST")
	if ollamaHost == "" {
		ollamaHost = "http://localhost:11434"
	}

	client := NewClient(Config{BaseURL: ollamaHost, Model: os.Getenv("OLLAMA_MODEL")}, nil)

	tests := []struct {
		name    string
		message string
	}{
		{
			name:    "Happy news",
			message: "I just got accepted into my dream school!",
		},
		{
			name:    "Loss",
			message: "My dog passed away this morning and the house feels empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := client.Classify(context.Background(), tt.message)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if len(scores) == 0 {
				t.Fatal("expected at least one emotion score")
			}

			v, err := domain.NewNormalizer(domain.UnknownLabelBucket).Normalize(scores)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			t.Logf("Scores: %+v", v.Scores())
		})
	}
}
