package geometry

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// BindingSlot names a fixed buffer or resource position shared by host and shaders.
type BindingSlot int

const (
	// SlotIndices is the triangle index buffer.
	SlotIndices BindingSlot = iota

	// SlotPositions is the packed float3 position buffer.
	SlotPositions

	// SlotNormals is the normal buffer: packed float3 normals or compressed triangle records.
	SlotNormals

	// SlotTexCoords is the packed float2 texture coordinate buffer.
	SlotTexCoords

	// SlotModelSpace is the per-instance ModelSpace uniform.
	SlotModelSpace

	// SlotProjectedSpace is the per-view ProjectedSpace uniform.
	SlotProjectedSpace

	// SlotMaterial is the MaterialParams uniform.
	SlotMaterial

	// SlotAmbientTexture is the ambient color texture.
	SlotAmbientTexture

	// SlotDiffuseTexture is the diffuse color texture.
	SlotDiffuseTexture

	// SlotSpecularTexture is the specular color texture.
	SlotSpecularTexture

	// SlotSampler is the sampler shared by the material textures.
	SlotSampler

	// SlotShading is the ShadingParams uniform.
	SlotShading

	slotCount
)

// Bind groups, one per update frequency.
const (
	GroupGeometry  = 0
	GroupTransform = 1
	GroupMaterial  = 2
)

type slotInfo struct {
	name    string
	group   int
	binding uint32
}

var slotTable = [slotCount]slotInfo{
	SlotIndices:         {"indices", GroupGeometry, 0},
	SlotPositions:       {"positions", GroupGeometry, 1},
	SlotNormals:         {"normals", GroupGeometry, 2},
	SlotTexCoords:       {"tex_coords", GroupGeometry, 3},
	SlotModelSpace:      {"model_space", GroupTransform, 0},
	SlotProjectedSpace:  {"projected_space", GroupTransform, 1},
	SlotMaterial:        {"material", GroupMaterial, 0},
	SlotAmbientTexture:  {"ambient_texture", GroupMaterial, 1},
	SlotDiffuseTexture:  {"diffuse_texture", GroupMaterial, 2},
	SlotSpecularTexture: {"specular_texture", GroupMaterial, 3},
	SlotSampler:         {"texture_sampler", GroupMaterial, 4},
	SlotShading:         {"shading", GroupMaterial, 5},
}

// Slots returns every binding slot in declaration order.
func Slots() []BindingSlot {
	out := make([]BindingSlot, 0, slotCount)
	for s := range slotCount {
		out = append(out, s)
	}
	return out
}

func (s BindingSlot) String() string {
	if s < 0 || s >= slotCount {
		return fmt.Sprintf("BindingSlot(%d)", int(s))
	}
	return slotTable[s].name
}

// Group returns the bind group index of the slot.
func (s BindingSlot) Group() int {
	return slotTable[s].group
}

// Binding returns the binding index of the slot within its group.
func (s BindingSlot) Binding() uint32 {
	return slotTable[s].binding
}

// Textured reports whether the slot only exists for textured materials.
func (s BindingSlot) Textured() bool {
	switch s {
	case SlotTexCoords, SlotAmbientTexture, SlotDiffuseTexture, SlotSpecularTexture, SlotSampler:
		return true
	}
	return false
}

// elementStrides are the minimum binding sizes of the geometry storage arrays.
var elementStrides = map[BindingSlot]uint64{
	SlotIndices:   4,
	SlotPositions: 12,
	SlotNormals:   8,
	SlotTexCoords: 8,
}

// LayoutEntry returns the wgpu layout entry for the slot. Geometry arrays are read-only
// storage, transforms and parameters are uniforms, and textures are filterable 2D floats.
//
// Parameters:
//   - s: the slot
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the populated entry
func LayoutEntry(s BindingSlot) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    s.Binding(),
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	switch s {
	case SlotIndices, SlotPositions, SlotNormals, SlotTexCoords:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		entry.Buffer.MinBindingSize = elementStrides[s]
	case SlotModelSpace, SlotProjectedSpace:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case SlotMaterial, SlotShading:
		entry.Visibility = wgpu.ShaderStageFragment
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case SlotAmbientTexture, SlotDiffuseTexture, SlotSpecularTexture:
		entry.Visibility = wgpu.ShaderStageFragment
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case SlotSampler:
		entry.Visibility = wgpu.ShaderStageFragment
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	}
	return entry
}

// BindGroupLayoutDescriptors builds one layout descriptor per bind group covering every slot.
// Texture-only slots are left out when withTexCoords is false.
//
// Parameters:
//   - withTexCoords: whether the mesh and material are textured
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index, entries sorted by binding
func BindGroupLayoutDescriptors(withTexCoords bool) map[int]wgpu.BindGroupLayoutDescriptor {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, s := range Slots() {
		if s.Textured() && !withTexCoords {
			continue
		}
		groups[s.Group()] = append(groups[s.Group()], LayoutEntry(s))
	}

	labels := map[int]string{
		GroupGeometry:  "geometry",
		GroupTransform: "transform",
		GroupMaterial:  "material",
	}
	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		result[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   labels[g],
			Entries: entries,
		}
	}
	return result
}
