package normal

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

const (
	cosPi4 = float32(0.7071067811865476)
	sinPi4 = float32(0.7071067811865475)

	decompressTolerance = 0.000928
	decodeTolerance     = 0.003005207
)

// sphere returns a deterministic sweep of unit vectors including the poles and the
// octahedron seams.
func sphere() [][3]float32 {
	var out [][3]float32
	const steps = 48
	for i := 0; i <= steps; i++ {
		theta := math.Pi * float64(i) / steps
		for j := 0; j < 2*steps; j++ {
			phi := 2 * math.Pi * float64(j) / (2 * steps)
			out = append(out, [3]float32{
				float32(math.Sin(theta) * math.Cos(phi)),
				float32(math.Sin(theta) * math.Sin(phi)),
				float32(math.Cos(theta)),
			})
		}
	}
	return out
}

func angleDegrees(a, b [3]float32) float64 {
	dot := float64(a[0])*float64(b[0]) + float64(a[1])*float64(b[1]) + float64(a[2])*float64(b[2])
	la := math.Sqrt(float64(a[0])*float64(a[0]) + float64(a[1])*float64(a[1]) + float64(a[2])*float64(a[2]))
	lb := math.Sqrt(float64(b[0])*float64(b[0]) + float64(b[1])*float64(b[1]) + float64(b[2])*float64(b[2]))
	c := math.Max(-1, math.Min(1, dot/(la*lb)))
	return math.Acos(c) * 180 / math.Pi
}

func assertUnit(t *testing.T, v [3]float32) {
	t.Helper()
	for _, c := range v {
		require.False(t, math.IsNaN(float64(c)) || math.IsInf(float64(c), 0), "non-finite component in %v", v)
	}
	l := math.Sqrt(float64(v[0])*float64(v[0]) + float64(v[1])*float64(v[1]) + float64(v[2])*float64(v[2]))
	assert.InDelta(t, 1.0, l, 1e-5)
}

func TestUnorm(t *testing.T) {
	assert.Equal(t, uint32(0), Unorm10(0))
	assert.Equal(t, uint32(1023), Unorm10(1))
	assert.Equal(t, uint32(512), Unorm10(0.5))
	assert.Equal(t, uint32(1023), Unorm10(1.5))
	assert.Equal(t, uint32(0), Unorm10(-0.1))
	assert.Equal(t, uint32(0), Unorm10(float32(math.NaN())))
	assert.Equal(t, uint16(65535), Unorm16(1))

	assert.Equal(t, uint32(0), Unorm2(false, false))
	assert.Equal(t, uint32(1), Unorm2(true, false))
	assert.Equal(t, uint32(2), Unorm2(false, true))
	assert.Equal(t, uint32(3), Unorm2(true, true))
}

func TestPackUnorm1010102(t *testing.T) {
	w := PackUnorm1010102(1023, 0, 1023, 2)
	assert.Equal(t, uint32(0x3ff|0x3ff<<20|2<<30), w)

	xyz, a := UnpackUnorm1010102(w)
	assert.Equal(t, [3]float32{1, 0, 1}, xyz)
	assert.Equal(t, uint32(2), a)

	// Excess bits are dropped, never carried into the next field.
	assert.Equal(t, uint32(0), PackUnorm1010102(1024, 0, 0, 0))
}

func TestCompressDecompress(t *testing.T) {
	rec := Compress(
		Signed{UV: [2]float32{0.1, 0.3}, Positive: true},
		Signed{UV: [2]float32{0.2, 0.4}, Positive: false},
		Signed{UV: [2]float32{0.5, 0.6}, Positive: true},
	)
	xs, ys, zs := rec.Decompress()
	expected := [3][3]float32{{0.1, 0.3, 1}, {0.2, 0.4, 0}, {0.5, 0.6, 1}}
	for i := range 3 {
		assert.InDelta(t, expected[i][0], xs[i], decompressTolerance, "normal %d u", i)
		assert.InDelta(t, expected[i][1], ys[i], decompressTolerance, "normal %d v", i)
		assert.Equal(t, expected[i][2], zs[i], "normal %d sign", i)
	}
}

func TestCompressWordLayout(t *testing.T) {
	rec := Compress(
		Signed{UV: [2]float32{1, 0}, Positive: true},
		Signed{UV: [2]float32{0, 1}, Positive: false},
		Signed{UV: [2]float32{1, 1}, Positive: true},
	)
	assert.Equal(t, uint32(0x3ff|0<<10|0x3ff<<20|1<<30), rec.Normals[0])
	assert.Equal(t, uint32(0|0x3ff<<10|0x3ff<<20|2<<30), rec.Normals[1])
}

func TestEncodeDecodeVectors(t *testing.T) {
	cases := [][9]float32{
		{1, 0, 0, 0, 1, 0, 0, 0, 1},
		{-1, 0, 0, 0, -1, 0, 0, 0, -1},
		{cosPi4, sinPi4, 0, -cosPi4, sinPi4, 0, cosPi4, -sinPi4, 0},
		{-cosPi4, -sinPi4, 0, cosPi4, 0, sinPi4, -cosPi4, 0, sinPi4},
		{cosPi4, 0, -sinPi4, -cosPi4, 0, -sinPi4, 0, cosPi4, sinPi4},
		{0, -cosPi4, sinPi4, 0, cosPi4, -sinPi4, 0, -cosPi4, -sinPi4},
	}
	for _, c := range cases {
		in := [3][3]float32{{c[0], c[1], c[2]}, {c[3], c[4], c[5]}, {c[6], c[7], c[8]}}
		got := Encode(in[0], in[1], in[2]).Vectors()
		for i := range 3 {
			for k := range 3 {
				assert.InDelta(t, in[i][k], got[i][k], decodeTolerance, "input %v normal %d component %d", c, i, k)
			}
		}
	}
}

func TestDenseRoundTrip(t *testing.T) {
	vs := sphere()
	worst := 0.0
	for i := 0; i+2 < len(vs); i += 3 {
		rec := Encode(vs[i], vs[i+1], vs[i+2])
		got := rec.Vectors()
		for k := range 3 {
			assertUnit(t, got[k])
			worst = math.Max(worst, angleDegrees(vs[i+k], got[k]))
		}

		m := rec.Decode()
		for k := range 3 {
			assert.Equal(t, got[k], m.Column(k))
		}
	}
	assert.Less(t, worst, 0.5)
}

func TestOctahedralRoundTrip(t *testing.T) {
	worstFloat, worstQuant := 0.0, 0.0
	for _, v := range sphere() {
		raw := EncodeOctahedral(v)
		assert.True(t, raw[0] >= 0 && raw[0] <= 1 && raw[1] >= 0 && raw[1] <= 1, "encoded %v out of range", raw)

		got := DecodeOctahedral(raw)
		assertUnit(t, got)
		worstFloat = math.Max(worstFloat, angleDegrees(v, got))

		q := DecodeOctNormal(EncodeOctNormal(v))
		assertUnit(t, q)
		worstQuant = math.Max(worstQuant, angleDegrees(v, q))
	}
	assert.Less(t, worstFloat, 0.001)
	assert.Less(t, worstQuant, 0.05)
}

func TestDecodeOctahedralFolds(t *testing.T) {
	tests := []struct {
		name string
		raw  [2]float32
		want [3]float32
	}{
		{"up", [2]float32{0.5, 0.5}, [3]float32{0, 0, 1}},
		{"down corner", [2]float32{1, 1}, [3]float32{0, 0, -1}},
		{"down opposite corner", [2]float32{0, 0}, [3]float32{0, 0, -1}},
		{"plus x seam", [2]float32{1, 0.5}, [3]float32{1, 0, 0}},
		{"minus y seam", [2]float32{0.5, 0}, [3]float32{0, -1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeOctahedral(tt.raw)
			for k := range 3 {
				assert.InDelta(t, tt.want[k], got[k], 1e-6)
			}
		})
	}
}

func TestDecodeSignedMatchesReference(t *testing.T) {
	// The signed octahedron and the folded octahedron agree on every upper-hemisphere vector.
	for _, v := range sphere() {
		if v[2] < 0.05 {
			continue
		}
		s := EncodeSigned(v)
		z := float32(0)
		if s.Positive {
			z = 1
		}
		dense := DecodeSigned([3]float32{s.UV[0]}, [3]float32{s.UV[1]}, [3]float32{z})[0]
		ref := DecodeOctahedral(EncodeOctahedral(v))
		assert.Less(t, angleDegrees(dense, ref), 0.001)
	}
}

func TestIndexedRecord(t *testing.T) {
	normals := []layout.PackedFloat3{{0, 0, 1}, {0, 1, 0}, {1, 0, 0}, {0, 0, -1}}
	indices := []uint32{9, 9, 9, 0, 1, 3}
	rec := FromIndexedNormals(normals, indices, 1)
	assert.Equal(t, Encode(normals[0], normals[1], normals[3]), rec)

	idx := rec.Indexed(77)
	assert.Equal(t, uint32(77), idx.TransformIndex)
	assert.Equal(t, rec.Decode(), idx.Decode())
	assert.Equal(t, 16, idx.Size())
	assert.Len(t, MarshalIndexedTriNormals([]IndexedTriNormals{idx, idx}), 32)
}

func TestGPUStructLayouts(t *testing.T) {
	require.NoError(t, layout.CheckStruct(TriNormals{}, GPUTriNormalsSource, "TriNormals"))
	require.NoError(t, layout.CheckStruct(IndexedTriNormals{}, GPUTriNormalsSource, "IndexedTriNormals"))
	require.NoError(t, layout.CheckStruct(OctNormal{}, GPUTriNormalsSource, "OctNormal"))
	assert.Contains(t, GPUTriNormalsDecodeSource, "fn tri_normals_decode(")
}

func TestMarshalTriNormals(t *testing.T) {
	rec := TriNormals{Normals: [2]uint32{0x04030201, 0x08070605}}
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, rec.Marshal())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 1, 2, 3, 4, 5, 6, 7, 8}, MarshalTriNormals([]TriNormals{rec, rec}))
}

func sphereGeometry(t *testing.T) *geometry.Geometry {
	t.Helper()
	vs := sphere()
	positions := make([]layout.PackedFloat3, len(vs))
	normals := make([]layout.PackedFloat3, len(vs))
	for i, v := range vs {
		positions[i] = v
		normals[i] = v
	}
	indices := make([]uint32, 0, len(vs)*3)
	for i := 0; i+2 < len(vs); i++ {
		indices = append(indices, uint32(i), uint32(i+1), uint32(i+2))
	}
	g, err := geometry.NewGeometry(
		geometry.WithIndices(indices),
		geometry.WithPositions(positions),
		geometry.WithNormals(normals),
	)
	require.NoError(t, err)
	return g
}

func TestEncoderEncodeGeometry(t *testing.T) {
	g := sphereGeometry(t)

	var calls, last int
	enc := NewEncoder(WithWorkers(4), WithChunkSize(100), WithProgress(func(done, total int) {
		calls++
		last = done
		assert.Equal(t, g.TriangleCount(), total)
	}))

	records, err := enc.EncodeGeometry(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, records, g.TriangleCount())
	for i, r := range records {
		assert.Equal(t, FromGeometry(g, i), r)
	}
	assert.Equal(t, g.TriangleCount(), last)
	assert.Equal(t, (g.TriangleCount()+99)/100, calls)

	indexed, err := enc.EncodeIndexed(context.Background(), g, 3)
	require.NoError(t, err)
	assert.Equal(t, records[5].Normals, indexed[5].Normals)
	assert.Equal(t, uint32(3), indexed[5].TransformIndex)

	oct := enc.EncodeVertices(g.Normals)
	require.Len(t, oct, g.VertexCount())
	assert.Less(t, angleDegrees(g.Normals[10], DecodeOctNormal(oct[10].Encoded)), 0.05)
}

func TestEncoderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEncoder().EncodeGeometry(ctx, sphereGeometry(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncoderRejectsInvalidGeometry(t *testing.T) {
	bad := &geometry.Geometry{
		Indices:   []uint32{0, 1, 5},
		Positions: []layout.PackedFloat3{{}, {}, {}},
		Normals:   []layout.PackedFloat3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
	}
	_, err := NewEncoder().EncodeGeometry(context.Background(), bad)
	assert.ErrorIs(t, err, geometry.ErrIndexOutOfRange)
}
