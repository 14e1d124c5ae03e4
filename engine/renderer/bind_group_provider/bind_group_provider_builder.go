package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
)

// BindGroupProviderOption is a functional option used to stage a resource on a
// BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider) error

// WithBuffer stages the contents of a buffer slot.
//
// Parameters:
//   - slot: the buffer slot
//   - data: the buffer contents
//
// Returns:
//   - BindGroupProviderOption: a function that stages the buffer on the provider
func WithBuffer(slot geometry.BindingSlot, data []byte) BindGroupProviderOption {
	return func(p *bindGroupProvider) error {
		return p.stage(Resource{Slot: slot, Data: data})
	}
}

// WithTexture stages a decoded texture for a texture slot.
//
// Parameters:
//   - slot: the texture slot
//   - tex: the decoded texture
//
// Returns:
//   - BindGroupProviderOption: a function that stages the texture on the provider
func WithTexture(slot geometry.BindingSlot, tex *common.ImportedTexture) BindGroupProviderOption {
	return func(p *bindGroupProvider) error {
		if tex == nil {
			return fmt.Errorf("%s: nil texture", slot)
		}
		return p.stage(Resource{Slot: slot, Texture: tex})
	}
}

// WithSampler stages the shared material sampler.
//
// Returns:
//   - BindGroupProviderOption: a function that stages the sampler on the provider
func WithSampler() BindGroupProviderOption {
	return func(p *bindGroupProvider) error {
		return p.stage(Resource{Slot: geometry.SlotSampler})
	}
}
