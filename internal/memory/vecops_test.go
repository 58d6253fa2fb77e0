package memory

import (
	"testing"

	// Linking go-sqlite3 provides the sqlite3 C symbols that the
	// sqlite-vec cgo bindings reference; without it the test binary
	// fails to link.
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	_, err := cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	assert.Error(t, err)
}

func TestDeserializeVector(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.0}
	blob, err := serializeVector(vec)
	require.NoError(t, err)

	got, err := deserializeVector(blob)
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestDeserializeVectorRejectsMalformed(t *testing.T) {
	_, err := deserializeVector(nil)
	assert.ErrorIs(t, err, ErrInvalidEmbedding)

	_, err = deserializeVector([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidEmbedding)
}

func TestDistanceToSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, distanceToSimilarity(0), 1e-9)
	assert.InDelta(t, 0.5, distanceToSimilarity(1), 1e-9)
	assert.InDelta(t, 0.0, distanceToSimilarity(2), 1e-9)
	// Clamped below zero for out-of-range distances
	assert.Equal(t, 0.0, distanceToSimilarity(2.5))
}
