package loader

import (
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithEncoder is an option builder that sets the normal encoder used at load time,
// so several loaders can share one worker pool.
//
// Parameters:
//   - e: the encoder
//
// Returns:
//   - LoaderBuilderOption: a function that applies the encoder option to a loader
func WithEncoder(e normal.Encoder) LoaderBuilderOption {
	return func(l *loader) {
		l.encoder = e
	}
}

// WithAsset is an option builder that pre-populates the asset cache.
//
// Parameters:
//   - key: the cache key for the asset
//   - asset: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, asset *MeshAsset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[key] = asset
	}
}
