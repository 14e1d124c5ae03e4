package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrLayoutMismatch reports a shader binding that disagrees with the binding schema.
var ErrLayoutMismatch = errors.New("bind group layout mismatch")

// MergeBindGroupLayouts combines the per-stage layout descriptors of a shader pair.
// Groups declared by one stage are used as-is; groups declared by both are merged by
// binding number, OR-ing the visibility of bindings both stages declare.
//
// Parameters:
//   - vertexLayouts: the vertex stage descriptors
//   - fragmentLayouts: the fragment stage descriptors
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors, entries sorted by binding
func MergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[int]bool)
	for g := range vertexLayouts {
		groupIndices[g] = true
	}
	for g := range fragmentLayouts {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   vDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}

// CheckLayouts verifies that every binding a shader pair declares exists in the reference
// schema with the same resource kind. Minimum sizes and visibility may differ: a shader may
// view a buffer through a narrower element type, and stages only see what they read.
//
// Parameters:
//   - declared: the merged shader descriptors
//   - reference: the schema descriptors
//
// Returns:
//   - error: ErrLayoutMismatch naming the first disagreeing binding
func CheckLayouts(declared, reference map[int]wgpu.BindGroupLayoutDescriptor) error {
	groups := make([]int, 0, len(declared))
	for g := range declared {
		groups = append(groups, g)
	}
	sort.Ints(groups)

	for _, g := range groups {
		refEntries := make(map[uint32]wgpu.BindGroupLayoutEntry)
		for _, e := range reference[g].Entries {
			refEntries[e.Binding] = e
		}
		for _, e := range declared[g].Entries {
			ref, ok := refEntries[e.Binding]
			if !ok {
				return fmt.Errorf("%w: group %d binding %d is not in the schema", ErrLayoutMismatch, g, e.Binding)
			}
			if e.Buffer.Type != ref.Buffer.Type ||
				e.Texture.SampleType != ref.Texture.SampleType ||
				e.Texture.ViewDimension != ref.Texture.ViewDimension ||
				e.Sampler.Type != ref.Sampler.Type {
				return fmt.Errorf("%w: group %d binding %d declares a different resource kind", ErrLayoutMismatch, g, e.Binding)
			}
		}
	}
	return nil
}
