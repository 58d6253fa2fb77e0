package memory

import (
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// serializeVector converts a float32 vector to its sqlite-vec blob form
func serializeVector(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, ErrInvalidEmbedding
	}
	return sqlite_vec.SerializeFloat32(vec)
}

// deserializeVector converts a sqlite-vec blob back to a float32 vector
func deserializeVector(blob []byte) ([]float32, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, ErrInvalidEmbedding
	}

	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// cosineSimilarity computes the cosine similarity of two vectors in Go.
// Used as a fallback when the sqlite-vec extension is unavailable.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// distanceToSimilarity converts a sqlite-vec cosine distance to a
// similarity score in [0,1]. Cosine distance from sqlite-vec ranges
// from 0 (identical) to 2 (opposite).
func distanceToSimilarity(distance float64) float64 {
	similarity := 1.0 - (distance / 2.0)
	if similarity < 0 {
		similarity = 0
	}
	return similarity
}
