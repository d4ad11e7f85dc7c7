package store

import (
	"math"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestSerializeVector_RoundTripsThroughDeserialize(t *testing.T) {
	v := []float32{0.1, -0.2, 3.5, 0}

	got := DeserializeVector(SerializeVector(v))

	assert.Equal(t, len(v), len(got))
	for i := range v {
		assert.Equal(t, v[i], got[i])
	}
}

func TestDeserializeVector_EmptyBufferYieldsNil(t *testing.T) {
	var got []float32
	assert.Equal(t, got, DeserializeVector(nil))
	assert.Equal(t, got, DeserializeVector([]byte{}))
}

func TestDeserializeVector_MalformedLengthYieldsNil(t *testing.T) {
	var got []float32
	assert.Equal(t, got, DeserializeVector([]byte{1, 2, 3}))
}

func TestCosineDistance_IdenticalVectorsAreZero(t *testing.T) {
	a := []float32{1, 0, 0}
	assert.Equal(t, 0.0, math.Round(cosineDistance(a, a)*1000)/1000)
}

func TestCosineDistance_OrthogonalVectorsAreOne(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.Equal(t, 1.0, math.Round(cosineDistance(a, b)*1000)/1000)
}

func TestCosineDistance_MismatchedLengthIsInfinite(t *testing.T) {
	assert.Equal(t, true, math.IsInf(cosineDistance([]float32{1, 2}, []float32{1}), 1))
}

func TestCosineDistance_ZeroVectorIsInfinite(t *testing.T) {
	assert.Equal(t, true, math.IsInf(cosineDistance([]float32{0, 0}, []float32{1, 1}), 1))
}

func TestScoreFromDistance_ZeroDistanceIsOne(t *testing.T) {
	assert.Equal(t, 1.0, scoreFromDistance(0))
}

func TestScoreFromDistance_RoundsToTwoDecimals(t *testing.T) {
	assert.Equal(t, 0.67, scoreFromDistance(0.5))
}

func TestScoreFromDistance_InfiniteDistanceIsZero(t *testing.T) {
	assert.Equal(t, 0.0, scoreFromDistance(math.Inf(1)))
}
