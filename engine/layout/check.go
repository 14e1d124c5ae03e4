package layout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrLayoutMismatch reports a host struct whose memory layout disagrees with its WGSL declaration.
	ErrLayoutMismatch = errors.New("layout mismatch")

	// ErrStructNotFound reports a struct name missing from the WGSL source.
	ErrStructNotFound = errors.New("struct not found in WGSL source")

	// ErrNotStruct reports a host value that is not a struct or pointer to struct.
	ErrNotStruct = errors.New("host value is not a struct")
)

// HostStructLayout reports the memory layout the Go compiler chose for a struct.
//
// Parameters:
//   - v: a struct value or pointer to struct
//
// Returns:
//   - StructLayout: the host layout, fields in declaration order
//   - error: ErrNotStruct if v is not a struct
func HostStructLayout(v any) (StructLayout, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return StructLayout{}, fmt.Errorf("%w: %v", ErrNotStruct, t)
	}

	fields := make([]FieldLayout, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		fields = append(fields, FieldLayout{
			Name:     f.Name,
			Type:     f.Type.String(),
			Offset:   uint64(f.Offset),
			Size:     uint64(f.Type.Size()),
			Align:    uint64(f.Type.Align()),
			Location: -1,
		})
	}
	return StructLayout{
		Name:   t.Name(),
		Size:   uint64(t.Size()),
		Align:  uint64(t.Align()),
		Fields: fields,
	}, nil
}

// isPadding reports whether a host field only reserves space.
func isPadding(name string) bool {
	return name == "_" || strings.HasPrefix(name, "_pad")
}

// CheckStruct verifies that a host struct and a WGSL struct agree on field order, every
// field offset and size, and total size. The total must equal the WGSL size, which is
// already rounded to the WGSL alignment, so arrays of the struct share a stride.
// Padding fields on the host ("_" or "_pad...") are skipped. A trailing runtime-sized
// array on the WGSL side is skipped.
//
// Parameters:
//   - host: the Go struct value or pointer
//   - wgslSource: WGSL source containing the struct declaration
//   - structName: the WGSL struct name
//
// Returns:
//   - error: nil when layouts agree; otherwise every mismatch wrapped in ErrLayoutMismatch and joined
func CheckStruct(host any, wgslSource, structName string) error {
	ws, ok := ParseWGSLStructs(wgslSource)[structName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrStructNotFound, structName)
	}
	hs, err := HostStructLayout(host)
	if err != nil {
		return err
	}
	return compareLayouts(hs, ws)
}

// compareLayouts reports every difference between a host layout and a WGSL layout.
func compareLayouts(hs, ws StructLayout) error {
	hostFields := make([]FieldLayout, 0, len(hs.Fields))
	for _, f := range hs.Fields {
		if !isPadding(f.Name) {
			hostFields = append(hostFields, f)
		}
	}
	gpuFields := make([]FieldLayout, 0, len(ws.Fields))
	for _, f := range ws.Fields {
		if !f.Runtime {
			gpuFields = append(gpuFields, f)
		}
	}

	var errs []error
	if len(hostFields) != len(gpuFields) {
		errs = append(errs, fmt.Errorf("%w: %s has %d fields, WGSL %s has %d",
			ErrLayoutMismatch, hs.Name, len(hostFields), ws.Name, len(gpuFields)))
	}
	for i := range min(len(hostFields), len(gpuFields)) {
		h, g := hostFields[i], gpuFields[i]
		if h.Offset != g.Offset {
			errs = append(errs, fmt.Errorf("%w: %s.%s at offset %d, WGSL %s.%s (%s) at offset %d",
				ErrLayoutMismatch, hs.Name, h.Name, h.Offset, ws.Name, g.Name, g.Type, g.Offset))
		}
		if h.Size != g.Size {
			errs = append(errs, fmt.Errorf("%w: %s.%s is %d bytes, WGSL %s.%s (%s) is %d bytes",
				ErrLayoutMismatch, hs.Name, h.Name, h.Size, ws.Name, g.Name, g.Type, g.Size))
		}
	}
	if hs.Size != ws.Size {
		errs = append(errs, fmt.Errorf("%w: %s is %d bytes, WGSL %s is %d bytes (align %d)",
			ErrLayoutMismatch, hs.Name, hs.Size, ws.Name, ws.Size, ws.Align))
	}
	return errors.Join(errs...)
}
