package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/engine/raster"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// triangleGLTF is one unindexed triangle without normals in an embedded buffer.
const triangleGLTF = `{
  "asset": {"version": "2.0"},
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteLength": 36}],
  "buffers": [{"byteLength": 36, "uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAAAACAPwAAAAAAAAAAAAAAAAAAgD8AAAAA"}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	mask, err := cfg.Mask()
	require.NoError(t, err)
	assert.True(t, mask.Has(shading.CapSpecular))
	src, err := cfg.NormalSource()
	require.NoError(t, err)
	assert.Equal(t, raster.NormalsCompressed, src)
}

func TestLoadConfigMergesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "oxyshade.yml", `
mesh: model.glb
width: 128
capabilities: normals_only
normals: uncompressed
camera:
  radius: 4
  target: [1, 2, 3]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "model.glb", cfg.Mesh)
	assert.Equal(t, 128, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
	assert.Equal(t, float32(4), cfg.Camera.Radius)
	assert.Equal(t, float32(60), cfg.Camera.Fov)
	require.NotNil(t, cfg.Camera.Target)
	assert.Equal(t, [3]float32{1, 2, 3}, *cfg.Camera.Target)

	src, err := cfg.NormalSource()
	require.NoError(t, err)
	assert.Equal(t, raster.NormalsUncompressed, src)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeFile(t, dir, "bad.yml", "width: [1, 2"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no mesh", func(c *Config) { c.Mesh = "" }, "mesh or variants_dir"},
		{"size", func(c *Config) { c.Width = 0 }, "image size"},
		{"capability", func(c *Config) { c.Capabilities = "ambient|glow" }, "capabilities"},
		{"normals", func(c *Config) { c.Normals = "packed" }, "normals"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"fov", func(c *Config) { c.Camera.Fov = 180 }, "fov"},
		{"planes", func(c *Config) { c.Camera.Far = c.Camera.Near }, "near"},
		{"workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"shader pair", func(c *Config) { c.VertexShader = "v.wgsl" }, "set together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mesh = "model.glb"
			require.NoError(t, cfg.Validate())
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVariantFileName(t *testing.T) {
	caps := shader.Capabilities{
		Mask:     shading.Mask(0).With(shading.CapAmbient).With(shading.CapDiffuse),
		Textured: true,
	}
	assert.Equal(t, "ambient_diffuse_textured", variantFileName(caps))
}

func TestRunRendersPreview(t *testing.T) {
	dir := t.TempDir()
	mesh := writeFile(t, dir, "tri.gltf", triangleGLTF)
	out := filepath.Join(dir, "out", "preview.png")
	cfg := writeFile(t, dir, "oxyshade.yml", "width: 32\nheight: 24\nlog_level: error\ncamera:\n  elevation: 0\n")

	require.NoError(t, run([]string{"-config", cfg, "-mesh", mesh, "-o", out, "-quiet", "-profile"}))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestRunRequiresInput(t *testing.T) {
	assert.Error(t, run([]string{"-o", filepath.Join(t.TempDir(), "x.png")}))
}

func TestShaderSources(t *testing.T) {
	vs, fs, err := shaderSources(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, shading.GPUVertexSource, vs)
	assert.Equal(t, shading.GPUShadingSource, fs)

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.VertexShader = filepath.Join(dir, "v.wgsl")
	cfg.FragmentShader = filepath.Join(dir, "f.wgsl")
	require.NoError(t, os.WriteFile(cfg.VertexShader, []byte("vertex"), 0o644))
	require.NoError(t, os.WriteFile(cfg.FragmentShader, []byte("fragment"), 0o644))
	vs, fs, err = shaderSources(cfg)
	require.NoError(t, err)
	assert.Equal(t, "vertex", vs)
	assert.Equal(t, "fragment", fs)

	cfg.FragmentShader = filepath.Join(dir, "missing.wgsl")
	_, _, err = shaderSources(cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
