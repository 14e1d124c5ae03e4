package layout

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorTypeSizeAlign(t *testing.T) {
	tests := []struct {
		name   string
		v      VectorType
		size   uint64
		align  uint64
		stride uint64
		wgsl   string
	}{
		{"float2", VectorType{ScalarF32, 2, ModeNatural}, 8, 8, 8, "vec2f"},
		{"float3", VectorType{ScalarF32, 3, ModeNatural}, 12, 16, 16, "vec3f"},
		{"float4", VectorType{ScalarF32, 4, ModeNatural}, 16, 16, 16, "vec4f"},
		{"packed_float2", VectorType{ScalarF32, 2, ModePacked}, 8, 4, 8, "array<f32, 2>"},
		{"packed_float3", VectorType{ScalarF32, 3, ModePacked}, 12, 4, 12, "array<f32, 3>"},
		{"packed_float4", VectorType{ScalarF32, 4, ModePacked}, 16, 4, 16, "array<f32, 4>"},
		{"half2", VectorType{ScalarF16, 2, ModeNatural}, 4, 4, 4, "vec2h"},
		{"half3", VectorType{ScalarF16, 3, ModeNatural}, 6, 8, 8, "vec3h"},
		{"half4", VectorType{ScalarF16, 4, ModeNatural}, 8, 8, 8, "vec4h"},
		{"packed_half3", VectorType{ScalarF16, 3, ModePacked}, 6, 2, 6, "array<f16, 3>"},
		{"ushort2", VectorType{ScalarU16, 2, ModeNatural}, 4, 4, 4, "u32"},
		{"packed_ushort2", VectorType{ScalarU16, 2, ModePacked}, 4, 2, 4, ""},
		{"uint4", VectorType{ScalarU32, 4, ModeNatural}, 16, 16, 16, "vec4u"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, tt.v.Size(), "size")
			assert.Equal(t, tt.align, tt.v.Align(), "align")
			assert.Equal(t, tt.stride, tt.v.Stride(), "stride")
			assert.Equal(t, tt.wgsl, tt.v.WGSL())
		})
	}
}

func TestMatrixTypeSizeAlign(t *testing.T) {
	tests := []struct {
		name  string
		m     MatrixType
		size  uint64
		align uint64
		wgsl  string
	}{
		{"float3x3", MatrixType{3, 3, ModeNatural}, 48, 16, "mat3x3<f32>"},
		{"float4x4", MatrixType{4, 4, ModeNatural}, 64, 16, "mat4x4<f32>"},
		{"packed_float4x3", MatrixType{4, 3, ModePacked}, 48, 4, "array<array<f32, 3>, 4>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, tt.m.Size())
			assert.Equal(t, tt.align, tt.m.Align())
			assert.Equal(t, tt.wgsl, tt.m.WGSL())
		})
	}
}

// A 3x3 occupies the footprint of three of the four columns of a 4x4.
func TestFloat3x3FootprintMatchesThreeColumnsOf4x4(t *testing.T) {
	m3 := MatrixType{3, 3, ModeNatural}
	m4 := MatrixType{4, 4, ModeNatural}
	assert.Equal(t, m4.Size()/4*3, m3.Size())
	assert.Equal(t, uintptr(48), unsafe.Sizeof(Float3x3{}))
}

func TestCheckContract(t *testing.T) {
	require.NoError(t, CheckContract())
}

func TestContractHostSizes(t *testing.T) {
	for _, d := range Contract {
		t.Run(d.Name, func(t *testing.T) {
			assert.Equal(t, d.Size, uint64(d.Host.Size()))
		})
	}
	d, ok := Lookup("packed_float4")
	require.True(t, ok)
	assert.Equal(t, uint64(16), d.Size)
	assert.Equal(t, uint64(4), d.Align)

	_, ok = Lookup("float5")
	assert.False(t, ok)
}

func TestResolveWGSLType(t *testing.T) {
	known := map[string]StructLayout{"Inner": {Name: "Inner", Size: 32, Align: 16}}
	tests := []struct {
		typeName string
		want     TypeLayout
		ok       bool
	}{
		{"f32", TypeLayout{4, 4}, true},
		{"vec3h", TypeLayout{6, 8}, true},
		{"array<vec3f, 4>", TypeLayout{64, 16}, true},
		{"array<f32, 3>", TypeLayout{12, 4}, true},
		{"array<array<f32, 3>, 4>", TypeLayout{48, 4}, true},
		{"array<Inner, 2>", TypeLayout{64, 16}, true},
		{"array<Inner>", TypeLayout{32, 16}, true},
		{"Missing", TypeLayout{}, false},
		{"array<f32, n>", TypeLayout{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, ok := ResolveWGSLType(tt.typeName, known)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

const testWGSL = `
// unrelated comment: struct Fake { a: f32 }
struct Outer {
    inner: Inner,
    scale: f32,
}

/* block /* nested */ comment */
struct Inner {
    normal: vec3f,
    flags: u32,
    uv: vec2f,
}

struct VertexOut {
    @builtin(position) clip: vec4f,
    @location(0) uv: vec2f,
    @location(1) normal: vec3f,
}

struct Records {
    count: u32,
    items: array<vec2<u32>>,
}
`

func TestParseWGSLStructs(t *testing.T) {
	structs := ParseWGSLStructs(testWGSL)
	require.Len(t, structs, 4)
	assert.NotContains(t, structs, "Fake")

	inner := structs["Inner"]
	assert.Equal(t, uint64(32), inner.Size)
	assert.Equal(t, uint64(16), inner.Align)
	require.Len(t, inner.Fields, 3)
	assert.Equal(t, uint64(0), inner.Fields[0].Offset)
	assert.Equal(t, uint64(12), inner.Fields[1].Offset)
	assert.Equal(t, uint64(16), inner.Fields[2].Offset)

	outer := structs["Outer"]
	assert.Equal(t, uint64(48), outer.Size)
	assert.Equal(t, uint64(32), outer.Fields[1].Offset)

	vout := structs["VertexOut"]
	require.Len(t, vout.Fields, 2)
	assert.Equal(t, 0, vout.Fields[0].Location)
	assert.Equal(t, 1, vout.Fields[1].Location)

	recs := structs["Records"]
	assert.Equal(t, uint64(8), recs.Size)
	assert.True(t, recs.Fields[1].Runtime)
	assert.Equal(t, uint64(8), recs.Fields[1].Offset)
}

type hostInner struct {
	Normal Float3
	Flags  uint32
	UV     Float2
	_pad0  [2]uint32
}

type hostInnerUnpadded struct {
	Normal Float3
	Flags  uint32
	UV     Float2
}

type hostInnerWrongOrder struct {
	Flags  uint32
	Normal Float3
	UV     Float2
	_      [2]uint32
}

type hostRecords struct {
	Count uint32
	_pad  uint32
}

func TestCheckStruct(t *testing.T) {
	require.NoError(t, CheckStruct(hostInner{}, testWGSL, "Inner"))
	require.NoError(t, CheckStruct(&hostInner{}, testWGSL, "Inner"))
	require.NoError(t, CheckStruct(hostRecords{}, testWGSL, "Records"))

	err := CheckStruct(hostInnerUnpadded{}, testWGSL, "Inner")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayoutMismatch))
	assert.Contains(t, err.Error(), "24 bytes")

	err = CheckStruct(hostInnerWrongOrder{}, testWGSL, "Inner")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
	assert.Contains(t, err.Error(), "hostInnerWrongOrder.Normal")

	assert.ErrorIs(t, CheckStruct(hostInner{}, testWGSL, "Nope"), ErrStructNotFound)
	assert.ErrorIs(t, CheckStruct(42, testWGSL, "Inner"), ErrNotStruct)
}

func TestHostStructLayout(t *testing.T) {
	l, err := HostStructLayout(hostInner{})
	require.NoError(t, err)
	assert.Equal(t, "hostInner", l.Name)
	assert.Equal(t, uint64(32), l.Size)
	require.Len(t, l.Fields, 4)
	assert.Equal(t, "_pad0", l.Fields[3].Name)
	assert.Equal(t, uint64(24), l.Fields[3].Offset)
}

func TestPutLittleEndian(t *testing.T) {
	buf := make([]byte, 48)
	Identity3x3().Put(buf)
	// column 1, row 1 is at byte 16 + 4
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, buf[20:24])
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[12:16])

	h := NewHalf3([3]float32{1, -2, 0.5})
	assert.Equal(t, [3]float32{1, -2, 0.5}, h.Float32())
	hb := make([]byte, 6)
	h.Put(hb)
	assert.Equal(t, []byte{0x00, 0x3c, 0x00, 0xc0, 0x00, 0x38}, hb)

	ub := make([]byte, 4)
	UShort2{0x1234, 0xabcd}.Put(ub)
	assert.Equal(t, []byte{0x34, 0x12, 0xcd, 0xab}, ub)
}

func TestFloat3x3MulVec(t *testing.T) {
	m := Float3x3FromColumns([3]float32{2, 0, 0}, [3]float32{0, 3, 0}, [3]float32{1, 0, 4})
	assert.Equal(t, [3]float32{3, 3, 4}, m.MulVec([3]float32{1, 1, 1}))
	assert.Equal(t, [3]float32{1, 0, 4}, m.Column(2))

	p := PackedFloat4x3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {5, 6, 7}}
	assert.Equal(t, Identity3x3(), p.Upper3x3())
}
