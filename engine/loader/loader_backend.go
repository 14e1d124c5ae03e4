package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
)

// importedAsset is the CPU-side result of a backend import, before validation and
// normal encoding.
type importedAsset struct {
	Name     string
	Mesh     *gltfMeshData
	Material material.Material
	Textures *material.TextureSet
}

// loaderBackend defines the generic interface for importing mesh files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports a mesh file.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *importedAsset: the imported data
	//   - error: error if loading fails
	Load(path string) (*importedAsset, error)

	// LoadReader imports a mesh from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing the data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - *importedAsset: the imported data
	//   - error: error if loading fails
	LoadReader(r io.Reader, isGLB bool) (*importedAsset, error)
}
