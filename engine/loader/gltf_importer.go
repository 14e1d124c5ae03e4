package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-shade/common"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter combines the parser and the extractors into one import.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts the merged mesh and its material.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *importedAsset: the imported data
	//   - error: error if import fails
	Import(path string) (*importedAsset, error)

	// ImportReader loads a glTF document from a reader.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - *importedAsset: the imported data
	//   - error: error if import fails
	ImportReader(r io.Reader, isGLB bool) (*importedAsset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (*importedAsset, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return imp.importFromParser(parser, path)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool) (*importedAsset, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return imp.importFromParser(parser, "")
}

// importFromParser extracts from a parser that has already loaded a document.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - fallbackPath: optional file path used as a fallback for naming
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackPath string) (*importedAsset, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	mesh, err := newGLTFMeshExtractor(parser).ExtractAll()
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}
	mat, err := newGLTFMaterialExtractor(parser).Extract(mesh.material)
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}
	if mesh.generated > 0 {
		common.Logger().Debug("generated smooth normals", "vertices", mesh.generated)
	}

	return &importedAsset{
		Name:     gltfExtractModelName(doc, mesh.name, fallbackPath),
		Mesh:     mesh,
		Material: mat.constant,
		Textures: mat.textures,
	}, nil
}

// gltfExtractModelName picks the default scene name, then the first mesh name, then the
// file name without its extension.
func gltfExtractModelName(doc *gltfDocument, meshName, fallbackPath string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if meshName != "" {
		return meshName
	}
	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "unnamed_mesh"
}
