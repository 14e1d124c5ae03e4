package layout

import (
	"errors"
	"fmt"
	"reflect"
)

// Declared is one row of the boundary contract: a named type with its exact size and
// alignment, its WGSL spelling, and the Go type the host writes.
type Declared struct {
	Name  string
	Size  uint64
	Align uint64
	WGSL  string
	Host  reflect.Type
}

func vector(name string, s Scalar, n int, mode Mode, host any) Declared {
	v := VectorType{Scalar: s, Components: n, Mode: mode}
	return Declared{Name: name, Size: v.Size(), Align: v.Align(), WGSL: v.WGSL(), Host: reflect.TypeOf(host)}
}

func matrix(name string, cols, rows int, mode Mode, host any) Declared {
	m := MatrixType{Columns: cols, Rows: rows, Mode: mode}
	return Declared{Name: name, Size: m.Size(), Align: m.Align(), WGSL: m.WGSL(), Host: reflect.TypeOf(host)}
}

// Contract lists every vector and matrix type that crosses the host/GPU boundary.
var Contract = []Declared{
	vector("float2", ScalarF32, 2, ModeNatural, Float2{}),
	vector("float3", ScalarF32, 3, ModeNatural, Float3{}),
	vector("float4", ScalarF32, 4, ModeNatural, Float4{}),
	vector("packed_float2", ScalarF32, 2, ModePacked, PackedFloat2{}),
	vector("packed_float3", ScalarF32, 3, ModePacked, PackedFloat3{}),
	vector("packed_float4", ScalarF32, 4, ModePacked, PackedFloat4{}),
	vector("half2", ScalarF16, 2, ModeNatural, Half2{}),
	vector("half3", ScalarF16, 3, ModeNatural, Half3{}),
	vector("half4", ScalarF16, 4, ModeNatural, Half4{}),
	vector("packed_half3", ScalarF16, 3, ModePacked, PackedHalf3{}),
	vector("ushort2", ScalarU16, 2, ModeNatural, UShort2{}),
	vector("packed_ushort2", ScalarU16, 2, ModePacked, PackedUShort2{}),
	matrix("float3x3", 3, 3, ModeNatural, Float3x3{}),
	matrix("float4x4", 4, 4, ModeNatural, Float4x4{}),
	matrix("packed_float4x3", 4, 3, ModePacked, PackedFloat4x3{}),
}

// Lookup returns the contract row with the given name.
func Lookup(name string) (Declared, bool) {
	for _, d := range Contract {
		if d.Name == name {
			return d, true
		}
	}
	return Declared{}, false
}

// CheckContract verifies every row: the Go host type occupies exactly the declared size,
// and the WGSL spelling, when present, resolves to the declared size and alignment.
//
// Returns:
//   - error: nil when every row holds, otherwise all failures joined
func CheckContract() error {
	var errs []error
	for _, d := range Contract {
		if got := uint64(d.Host.Size()); got != d.Size {
			errs = append(errs, fmt.Errorf("%w: %s host type %s is %d bytes, declared %d",
				ErrLayoutMismatch, d.Name, d.Host, got, d.Size))
		}
		if d.Size%uint64(d.Host.Align()) != 0 {
			errs = append(errs, fmt.Errorf("%w: %s host alignment %d does not divide %d",
				ErrLayoutMismatch, d.Name, d.Host.Align(), d.Size))
		}
		if d.WGSL == "" {
			continue
		}
		wl, ok := ResolveWGSLType(d.WGSL, nil)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s WGSL type %q does not resolve", ErrLayoutMismatch, d.Name, d.WGSL))
			continue
		}
		if wl.Size != d.Size || wl.Align != d.Align {
			errs = append(errs, fmt.Errorf("%w: %s declared %d/%d, WGSL %s is %d/%d",
				ErrLayoutMismatch, d.Name, d.Size, d.Align, d.WGSL, wl.Size, wl.Align))
		}
	}
	return errors.Join(errs...)
}
