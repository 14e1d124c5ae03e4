package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// errNoTriangles reports a document without any triangle primitive.
var errNoTriangles = errors.New("document has no triangle primitives")

// gltfMeshData is the merged vertex data of every triangle primitive in a document.
type gltfMeshData struct {
	name      string
	indices   []uint32
	positions []layout.PackedFloat3
	normals   []layout.PackedFloat3
	texCoords []layout.PackedFloat2

	// material is the material index of the first primitive that names one, or -1.
	material int

	// generated counts the vertices whose normals were computed from the triangles.
	generated int
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor turns glTF primitives into one indexed triangle list.
type gltfMeshExtractor interface {
	// ExtractAll merges every triangle primitive of every mesh into one vertex set.
	// Indices are rebased onto the merged arrays. Primitives without indices are read as
	// sequential triangles; primitives without NORMAL get smooth normals from their
	// triangles; texture coordinates are kept only when every primitive has TEXCOORD_0.
	//
	// Returns:
	//   - *gltfMeshData: the merged data
	//   - error: an accessor error, or errNoTriangles
	ExtractAll() (*gltfMeshData, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractAll() (*gltfMeshData, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.New("no document loaded")
	}

	out := &gltfMeshData{material: -1}
	allTextured := true
	var uvs []layout.PackedFloat2

	for mi := range doc.Meshes {
		mesh := &doc.Meshes[mi]
		for pi := range mesh.Primitives {
			prim := &mesh.Primitives[pi]
			if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
				common.Logger().Warn("skipping non-triangle primitive",
					"mesh", mesh.Name, "primitive", pi, "mode", *prim.Mode)
				continue
			}
			if out.name == "" {
				out.name = mesh.Name
			}

			base := uint32(len(out.positions))
			p, err := e.extractPrimitive(prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d (%q) primitive %d: %w", mi, mesh.Name, pi, err)
			}
			for _, idx := range p.indices {
				out.indices = append(out.indices, idx+base)
			}
			out.positions = append(out.positions, p.positions...)
			out.normals = append(out.normals, p.normals...)
			out.generated += p.generated
			if p.texCoords == nil {
				allTextured = false
			} else {
				uvs = append(uvs, p.texCoords...)
			}
			if out.material < 0 && prim.Material != nil {
				out.material = *prim.Material
			}
		}
	}

	if len(out.indices) == 0 {
		return nil, errNoTriangles
	}
	if allTextured {
		out.texCoords = uvs
	}
	return out, nil
}

// extractPrimitive reads one triangle primitive. Indices stay local to the primitive.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive) (*gltfMeshData, error) {
	posIdx, ok := prim.Attributes[gltfAttributePosition]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3Accessor(posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	out := &gltfMeshData{positions: make([]layout.PackedFloat3, len(positions))}
	for i, p := range positions {
		out.positions[i] = layout.PackedFloat3(p)
	}

	if prim.Indices != nil {
		out.indices, err = e.parser.ReadIndicesAccessor(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		out.indices = make([]uint32, len(positions)-len(positions)%3)
		for i := range out.indices {
			out.indices[i] = uint32(i)
		}
	}
	if len(out.indices)%3 != 0 {
		return nil, fmt.Errorf("%d indices is not a triangle list", len(out.indices))
	}
	for _, idx := range out.indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range for %d vertices", idx, len(positions))
		}
	}

	if nIdx, ok := prim.Attributes[gltfAttributeNormal]; ok {
		normals, err := e.parser.ReadVec3Accessor(nIdx)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		if len(normals) != len(positions) {
			return nil, fmt.Errorf("%d normals for %d positions", len(normals), len(positions))
		}
		out.normals = make([]layout.PackedFloat3, len(normals))
		for i, n := range normals {
			out.normals[i] = layout.PackedFloat3(common.Normalize3(n))
		}
	} else {
		out.normals = generateNormals(out.positions, out.indices)
		out.generated = len(out.normals)
	}

	if tIdx, ok := prim.Attributes[gltfAttributeTexCoord0]; ok {
		uvs, err := e.parser.ReadVec2Accessor(tIdx)
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
		if len(uvs) != len(positions) {
			return nil, fmt.Errorf("%d texcoords for %d positions", len(uvs), len(positions))
		}
		out.texCoords = make([]layout.PackedFloat2, len(uvs))
		for i, uv := range uvs {
			out.texCoords[i] = layout.PackedFloat2(uv)
		}
	}
	return out, nil
}

// generateNormals computes smooth vertex normals for geometry without a NORMAL attribute.
// Each face normal is the cross product of two edges, so its length is proportional to the
// triangle area; the face normals are accumulated onto their vertices and normalized.
// Vertices touched by no triangle, or only by degenerate ones, get +Y.
//
// Parameters:
//   - positions: vertex positions
//   - indices: the triangle index buffer, already range checked
//
// Returns:
//   - []layout.PackedFloat3: one unit normal per vertex
func generateNormals(positions []layout.PackedFloat3, indices []uint32) []layout.PackedFloat3 {
	accum := make([][3]float32, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0 := [3]float32(positions[i0])
		edge1 := common.Sub3([3]float32(positions[i1]), p0)
		edge2 := common.Sub3([3]float32(positions[i2]), p0)
		face := common.Cross3(edge1, edge2)
		for _, idx := range [3]uint32{i0, i1, i2} {
			accum[idx] = common.Add3(accum[idx], face)
		}
	}

	out := make([]layout.PackedFloat3, len(positions))
	for i, a := range accum {
		if !(common.Length3(a) > common.NormalizeEpsilon) {
			out[i] = layout.PackedFloat3{0, 1, 0}
			continue
		}
		out[i] = layout.PackedFloat3(common.Normalize3(a))
	}
	return out
}
