package interpolator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
)

func assertVec(t *testing.T, want, got [3]float32, delta float64) {
	t.Helper()
	for k := range 3 {
		assert.InDelta(t, want[k], got[k], delta, "component %d of %v", k, got)
	}
}

func scale(x, y, z float32) layout.Float4x4 {
	return layout.Float4x4{x, 0, 0, 0, 0, y, 0, 0, 0, 0, z, 0, 0, 0, 0, 1}
}

func TestBarycentric(t *testing.T) {
	assert.Equal(t, [3]float32{1, 0, 0}, Barycentric([2]float32{0, 0}))
	assert.Equal(t, [3]float32{0.5, 0.25, 0.25}, Barycentric([2]float32{0.25, 0.25}))
}

func TestBlendDoesNotNormalize(t *testing.T) {
	m := layout.Float3x3FromColumns([3]float32{1, 0, 0}, [3]float32{0, 1, 0}, [3]float32{0, 0, 1})
	got := Blend(m, Barycentric([2]float32{1.0 / 3, 1.0 / 3}))
	assertVec(t, [3]float32{1.0 / 3, 1.0 / 3, 1.0 / 3}, got, 1e-6)
}

func TestNormalize(t *testing.T) {
	assertVec(t, [3]float32{0.6, 0.8, 0}, Normalize([3]float32{3, 4, 0}), 1e-7)
	assertVec(t, [3]float32{0, 0, 1}, Normalize([3]float32{}), 0)
	assertVec(t, [3]float32{0, 0, 1}, Normalize([3]float32{float32(math.NaN()), 0, 0}), 0)
	assertVec(t, [3]float32{0, 0, 1}, Normalize([3]float32{float32(math.Inf(1)), 0, 0}), 0)

	// Tiny vectors stay accurate because the length is taken in float64.
	got := Normalize([3]float32{3e-20, 4e-20, 0})
	assertVec(t, [3]float32{0.6, 0.8, 0}, got, 1e-6)
}

func TestBarycentricIdentity(t *testing.T) {
	n := normal.Encode([3]float32{0, 0.6, 0.8}, [3]float32{0, 0.6, 0.8}, [3]float32{0, 0.6, 0.8})
	interp := NewCompressed([]normal.TriNormals{n}, layout.Identity3x3())
	want := n.Vectors()[0]
	for _, b := range [][2]float32{{0, 0}, {1, 0}, {0, 1}, {0.3, 0.3}, {0.1, 0.7}} {
		assertVec(t, want, interp.Normal(0, b), 1e-5)
	}
}

func TestNonUniformScaleUsesInverseTranspose(t *testing.T) {
	s := float32(1 / math.Sqrt2)
	n := [3]float32{s, s, 0}
	g, err := geometry.NewGeometry(
		geometry.WithIndices([]uint32{0, 1, 2}),
		geometry.WithPositions([]layout.PackedFloat3{{0, 0, 0}, {1, -1, 0}, {0, 0, 1}}),
		geometry.WithNormals([]layout.PackedFloat3{n, n, n}),
	)
	require.NoError(t, err)

	ntw, ok := NormalToWorld(scale(2, 1, 1))
	require.True(t, ok)
	got := NewUncompressed(g, ntw).Normal(0, [2]float32{0.2, 0.3})

	// The scaled surface contains (2, -1, 0), so its normal is (1, 2, 0) normalized.
	want := [3]float32{float32(1 / math.Sqrt(5)), float32(2 / math.Sqrt(5)), 0}
	assertVec(t, want, got, 1e-6)
	assert.InDelta(t, 0, float64(got[0]*2-got[1]), 1e-6)
}

func TestNormalToWorldSingular(t *testing.T) {
	_, ok := NormalToWorld(scale(1, 0, 1))
	assert.False(t, ok)

	m, ok := NormalToWorld(scale(1, 1, 1))
	require.True(t, ok)
	assert.Equal(t, layout.Identity3x3(), m)
}

func TestVariantsAgree(t *testing.T) {
	normals := []layout.PackedFloat3{{0, 0, 1}, {0.6, 0, 0.8}, {0, -0.6, 0.8}, {-1, 0, 0}}
	g, err := geometry.NewGeometry(
		geometry.WithIndices([]uint32{0, 1, 2, 1, 3, 2}),
		geometry.WithPositions(make([]layout.PackedFloat3, 4)),
		geometry.WithNormals(normals),
	)
	require.NoError(t, err)

	ntw, ok := NormalToWorld(scale(1, 1.5, 0.75))
	require.True(t, ok)

	records := make([]normal.TriNormals, g.TriangleCount())
	indexedRecords := make([]normal.IndexedTriNormals, g.TriangleCount())
	for i := range records {
		records[i] = normal.FromGeometry(g, i)
		indexedRecords[i] = records[i].Indexed(1)
	}
	table := []layout.PackedFloat4x3{
		{},
		{ntw.Column(0), ntw.Column(1), ntw.Column(2), {9, 9, 9}},
	}

	ref := NewUncompressed(g, ntw)
	dense := NewCompressed(records, ntw)
	idx := NewIndexed(indexedRecords, table)
	for tri := range g.TriangleCount() {
		for _, b := range [][2]float32{{0, 0}, {0.5, 0.25}, {0.1, 0.8}} {
			want := ref.Normal(tri, b)
			got := dense.Normal(tri, b)
			dot := float64(want[0]*got[0] + want[1]*got[1] + want[2]*got[2])
			assert.Greater(t, dot, math.Cos(0.5*math.Pi/180), "triangle %d at %v", tri, b)
			assert.Equal(t, got, idx.Normal(tri, b))
		}
	}
}

func TestGPUInterpolateSource(t *testing.T) {
	assert.Contains(t, GPUInterpolateSource, "fn tri_normal(")
	assert.Contains(t, GPUInterpolateSource, "fn indexed_tri_normal(")
}
