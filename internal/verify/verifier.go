// Package verify scores an utterance's feature vector against the enrolled
// voiceprint.
package verify

import (
	"fmt"
	"math"
)

// Threshold is the cosine-similarity acceptance boundary. A score exactly
// equal to the threshold is a rejection; only strictly greater accepts.
const Threshold = 0.7

// Result is the outcome of one verification. It is consumed immediately by
// the gate and never persisted.
type Result struct {
	Accepted   bool
	Similarity float64
	Reason     string
}

// Verifier compares feature vectors by cosine similarity.
type Verifier struct {
	Threshold float64
}

// New returns a verifier at the standard threshold.
func New() *Verifier {
	return &Verifier{Threshold: Threshold}
}

// Score returns the cosine similarity between the utterance features and
// the voiceprint, in [-1, 1]. Mismatched or degenerate vectors score 0.
func (v *Verifier) Score(features, voiceprint []float64) float64 {
	if len(features) == 0 || len(features) != len(voiceprint) {
		return 0
	}
	var dot, normA, normB float64
	for i := range features {
		dot += features[i] * voiceprint[i]
		normA += features[i] * features[i]
		normB += voiceprint[i] * voiceprint[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Verify accepts iff the similarity strictly exceeds the threshold.
func (v *Verifier) Verify(features, voiceprint []float64) Result {
	similarity := v.Score(features, voiceprint)
	if similarity > v.Threshold {
		return Result{Accepted: true, Similarity: similarity, Reason: "speaker verified"}
	}
	return Result{
		Accepted:   false,
		Similarity: similarity,
		Reason:     fmt.Sprintf("similarity %.4f not above threshold %.2f", similarity, v.Threshold),
	}
}
