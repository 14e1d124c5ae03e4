package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
)

// ErrUnsupportedFormat reports a file extension no backend handles.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// LoaderBackendType identifies the mesh file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// MeshAsset is a loaded mesh with its triangle normals already encoded.
type MeshAsset struct {
	Name       string
	Mesh       *geometry.Mesh
	TriNormals []normal.TriNormals
	Material   material.Material

	// Textures is nil for untextured materials or meshes without texture coordinates.
	Textures *material.TextureSet
}

// NewModel places the asset in the world. Extra options are applied after the asset's own.
//
// Parameters:
//   - opts: additional model options, such as model.WithTransform
//
// Returns:
//   - model.Model: the model
func (a *MeshAsset) NewModel(opts ...model.ModelBuilderOption) model.Model {
	base := []model.ModelBuilderOption{
		model.WithName(a.Name),
		model.WithMesh(a.Mesh),
		model.WithTriNormals(a.TriNormals),
		model.WithMaterial(a.Material),
	}
	if a.Textures != nil {
		base = append(base, model.WithTextureSet(a.Textures))
	}
	return model.NewModel(append(base, opts...)...)
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	encoder    normal.Encoder
	assetCache map[string]*MeshAsset

	backend loaderBackend
}

// Loader loads and caches mesh assets. It hides the file format behind a backend and
// encodes each mesh's normals once, at load time.
type Loader interface {
	// LoadAsset imports a mesh file, validates it and encodes its triangle normals.
	// The result is cached by path; a cached asset is returned without touching the file.
	//
	// Parameters:
	//   - ctx: cancels normal encoding
	//   - path: the file path to the mesh file
	//
	// Returns:
	//   - *MeshAsset: the loaded asset
	//   - error: ErrUnsupportedFormat, a parse or validation error, or ctx.Err()
	LoadAsset(ctx context.Context, path string) (*MeshAsset, error)

	// LoadReader imports a mesh from a reader stream and caches it by the given name. The
	// asset keeps the name found in the document; name is only the cache key.
	//
	// Parameters:
	//   - ctx: cancels normal encoding
	//   - name: the cache key for the loaded asset
	//   - r: the reader providing the data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *MeshAsset: the loaded asset
	//   - error: a parse or validation error, or ctx.Err()
	LoadReader(ctx context.Context, name string, r io.Reader, isGLB bool) (*MeshAsset, error)

	// Get retrieves a cached asset by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *MeshAsset: the cached asset or nil
	Get(name string) *MeshAsset

	// Assets returns a copy of the asset cache.
	//
	// Returns:
	//   - map[string]*MeshAsset: all cached assets keyed by name
	Assets() map[string]*MeshAsset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the specified backend type and options applied.
// Without WithEncoder the loader creates its own normal.Encoder.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		assetCache: make(map[string]*MeshAsset),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	if l.encoder == nil {
		l.encoder = normal.NewEncoder()
	}
	return l
}

func (l *loader) LoadAsset(ctx context.Context, path string) (*MeshAsset, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	imported, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	asset, err := l.importedToAsset(ctx, imported)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	common.Logger().Debug("loaded mesh asset",
		"path", path,
		"triangles", asset.Mesh.Geometry.TriangleCount(),
		"textured", asset.Textures != nil,
		"elapsed", time.Since(start))
	return l.store(path, asset), nil
}

func (l *loader) LoadReader(ctx context.Context, name string, r io.Reader, isGLB bool) (*MeshAsset, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	imported, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	asset, err := l.importedToAsset(ctx, imported)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.store(name, asset), nil
}

func (l *loader) Get(name string) *MeshAsset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Assets() map[string]*MeshAsset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*MeshAsset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}

// store caches asset under key. If a concurrent load stored first, that asset wins so
// every caller sees the same pointer.
func (l *loader) store(key string, asset *MeshAsset) *MeshAsset {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.assetCache[key]; ok {
		return existing
	}
	l.assetCache[key] = asset
	return asset
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// importedToAsset validates the imported arrays and encodes one TriNormals record per
// triangle. Textures are dropped when the mesh has no texture coordinates.
func (l *loader) importedToAsset(ctx context.Context, imported *importedAsset) (*MeshAsset, error) {
	opts := []geometry.GeometryBuilderOption{
		geometry.WithIndices(imported.Mesh.indices),
		geometry.WithPositions(imported.Mesh.positions),
		geometry.WithNormals(imported.Mesh.normals),
	}
	if imported.Mesh.texCoords != nil {
		opts = append(opts, geometry.WithTexCoords(imported.Mesh.texCoords))
	}
	g, err := geometry.NewGeometry(opts...)
	if err != nil {
		return nil, err
	}

	records, err := l.encoder.EncodeGeometry(ctx, g)
	if err != nil {
		return nil, err
	}

	asset := &MeshAsset{
		Name:       imported.Name,
		Mesh:       geometry.NewMesh(imported.Name, g),
		TriNormals: records,
		Material:   imported.Material,
	}
	if g.Textured() {
		asset.Textures = imported.Textures
	}
	return asset, nil
}
