package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvert4RoundTrip(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, [3]float32{1, -2, 3}, [3]float32{0.3, 0.7, -0.2}, [3]float32{2, 1, 0.5})

	inv := make([]float32, 16)
	require.True(t, Invert4(inv, m))

	prod := make([]float32, 16)
	Mul4(prod, m, inv)
	id := make([]float32, 16)
	Identity(id)
	assert.InDeltaSlice(t, id, prod, 1e-5)
}

func TestInvert4Singular(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, [3]float32{}, [3]float32{}, [3]float32{0, 1, 1})
	assert.False(t, Invert4(make([]float32, 16), m))
}

func TestMulPoint4Translation(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, [3]float32{1, 2, 3}, [3]float32{}, [3]float32{1, 1, 1})
	assert.Equal(t, [4]float32{2, 3, 4, 1}, MulPoint4(m, [3]float32{1, 1, 1}))
}

func TestNormalize3(t *testing.T) {
	n := Normalize3([3]float32{3, 0, 4})
	assert.InDeltaSlice(t, []float32{0.6, 0, 0.8}, n[:], 1e-6)
	assert.Equal(t, [3]float32{0, 0, 1}, Normalize3([3]float32{}))
	assert.InDelta(t, 0, Dot3([3]float32{1, 0, 0}, Cross3([3]float32{1, 0, 0}, [3]float32{0, 1, 0})), 0)
}

func TestCoalesceAndClamp(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, float32(1), Clamp(float32(3), 0, 1))
	assert.Equal(t, -2, Clamp(-5, -2, 2))
	assert.Equal(t, uint32(7), Clamp(uint32(7), 0, 9))
}
