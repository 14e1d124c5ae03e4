package normal

import (
	_ "embed"
	"encoding/binary"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// GPUTriNormalsSource is the canonical WGSL definition of the TriNormals, IndexedTriNormals
// and OctNormal structs.
//
//go:embed assets/tri_normals.wgsl
var GPUTriNormalsSource string

// GPUTriNormalsDecodeSource holds the WGSL decode functions for the records in
// GPUTriNormalsSource. It must be included after them.
//
//go:embed assets/tri_normals_decode.wgsl
var GPUTriNormalsDecodeSource string

// TriNormals is one triangle's three vertex normals packed into two 10-10-10-2 words.
// Matches the WGSL TriNormals struct exactly (see GPUTriNormalsSource).
// Size: 8 bytes.
type TriNormals struct {
	Normals [2]uint32 // offset 0: vec2<u32>
}

// Size returns the size of the TriNormals struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (8)
func (t *TriNormals) Size() int {
	return int(unsafe.Sizeof(*t))
}

// Marshal serializes the record for GPU upload.
//
// Returns:
//   - []byte: 8-byte buffer
func (t *TriNormals) Marshal() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:], t.Normals[0])
	binary.LittleEndian.PutUint32(buf[4:], t.Normals[1])
	return buf
}

// IndexedTriNormals is a TriNormals record plus an index into a per-instance transform table.
// Matches the WGSL IndexedTriNormals struct exactly (see GPUTriNormalsSource).
// Size: 16 bytes (vec2<u32> alignment rounds 12 up to 16).
type IndexedTriNormals struct {
	Normals        [2]uint32 // offset 0: vec2<u32>
	TransformIndex uint32    // offset 8: u32
	_pad           uint32    // offset 12: struct stride padding
}

// Size returns the size of the IndexedTriNormals struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (t *IndexedTriNormals) Size() int {
	return int(unsafe.Sizeof(*t))
}

// Marshal serializes the record for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer, padding zeroed
func (t *IndexedTriNormals) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], t.Normals[0])
	binary.LittleEndian.PutUint32(buf[4:], t.Normals[1])
	binary.LittleEndian.PutUint32(buf[8:], t.TransformIndex)
	return buf
}

// OctNormal is a single normal in the reference float-pair format, quantized to unorm16.
// Matches the WGSL OctNormal struct exactly (see GPUTriNormalsSource).
// Size: 4 bytes.
type OctNormal struct {
	Encoded layout.UShort2 // offset 0: u32, x in the low half
}

// MarshalTriNormals serializes a record array into one contiguous buffer.
//
// Parameters:
//   - records: the records
//
// Returns:
//   - []byte: 8 bytes per record
func MarshalTriNormals(records []TriNormals) []byte {
	buf := make([]byte, 8*len(records))
	for i, r := range records {
		binary.LittleEndian.PutUint32(buf[i*8:], r.Normals[0])
		binary.LittleEndian.PutUint32(buf[i*8+4:], r.Normals[1])
	}
	return buf
}

// MarshalIndexedTriNormals serializes an indexed record array into one contiguous buffer.
//
// Parameters:
//   - records: the records
//
// Returns:
//   - []byte: 16 bytes per record
func MarshalIndexedTriNormals(records []IndexedTriNormals) []byte {
	buf := make([]byte, 0, 16*len(records))
	for i := range records {
		buf = append(buf, records[i].Marshal()...)
	}
	return buf
}
