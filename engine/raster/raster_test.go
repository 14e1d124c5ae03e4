package raster

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/camera"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
	"github.com/Carmen-Shannon/oxy-shade/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

const size = 64

var (
	lit     = shading.Mask(0).With(shading.CapAmbient).With(shading.CapDiffuse).With(shading.CapSpecular)
	ambient = shading.Mask(0).With(shading.CapAmbient)
	light   = [3]float32{0, 0, 2}
)

// quad builds a two-triangle square spanning [-1, 1] in x and y at depth z.
func quad(t *testing.T, z float32, normals []layout.PackedFloat3, mat material.Material) model.Model {
	t.Helper()
	if normals == nil {
		normals = []layout.PackedFloat3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	}
	g, err := geometry.NewGeometry(
		geometry.WithIndices([]uint32{0, 1, 2, 0, 2, 3}),
		geometry.WithPositions([]layout.PackedFloat3{{-1, -1, z}, {1, -1, z}, {1, 1, z}, {-1, 1, z}}),
		geometry.WithNormals(normals),
	)
	require.NoError(t, err)
	records, err := normal.NewEncoder(normal.WithWorkers(1)).EncodeGeometry(context.Background(), g)
	require.NoError(t, err)
	return model.NewModel(
		model.WithName("quad"),
		model.WithMesh(geometry.NewMesh("quad", g)),
		model.WithTriNormals(records),
		model.WithMaterial(mat),
	)
}

func testFrame(mask shading.Mask) Frame {
	cam := camera.NewCamera(
		camera.WithAspect(1),
		camera.WithController(camera.NewOrbitController(
			camera.WithRadius(3),
			camera.WithAzimuth(0),
			camera.WithElevation(0),
		)),
	)
	f := FrameFromCamera(cam, size, size, light, mask)
	f.Background = [4]float32{0, 0, 0, 1}
	return f
}

func testMaterial() material.Material {
	return material.NewConstantMaterial(
		material.WithName("test"),
		material.WithAmbientColor([4]float32{0.2, 0.4, 0.6, 1}),
		material.WithDiffuseColor([4]float32{0.8, 0.5, 0.3, 1}),
		material.WithSpecularColor([4]float32{0.3, 0.3, 0.3, 1}),
		material.WithSpecularExponent(16),
	)
}

func flat(c [4]float32) material.Material {
	return material.NewConstantMaterial(material.WithAmbientColor(c), material.WithAmbientIntensity(1))
}

func pixel(img *image.RGBA, x, y int) [4]int {
	c := img.RGBAAt(x, y)
	return [4]int{int(c.R), int(c.G), int(c.B), int(c.A)}
}

func assertPixel(t *testing.T, want [4]float32, got [4]int, delta float64) {
	t.Helper()
	for k := range 4 {
		assert.InDelta(t, common.Clamp(want[k], 0, 1)*255, float64(got[k]), delta, "channel %d", k)
	}
}

func TestRenderCenterMatchesEvaluator(t *testing.T) {
	m := testMaterial()
	r := NewRenderer(WithWorkers(2))
	img, err := r.Render(context.Background(), []model.Model{quad(t, 0, nil, m)}, testFrame(lit))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, size, size), img.Bounds())

	want := shading.Evaluate(lit, shading.Params{
		LightPos:  light,
		CameraPos: [3]float32{0, 0, 3},
		Normal:    [3]float32{0, 0, 1},
	}, m)
	assertPixel(t, want, pixel(img, size/2, size/2), 3)

	assert.Equal(t, [4]int{0, 0, 0, 255}, pixel(img, 0, 0))
	assert.Equal(t, [4]int{0, 0, 0, 255}, pixel(img, size-1, size-1))
}

func TestRenderNormalsOnly(t *testing.T) {
	r := NewRenderer(WithNormalSource(NormalsUncompressed))
	f := testFrame(shading.Mask(0).With(shading.CapNormalsOnly).With(shading.CapDiffuse))
	img, err := r.Render(context.Background(), []model.Model{quad(t, 0, nil, testMaterial())}, f)
	require.NoError(t, err)
	assert.Equal(t, [4]int{128, 128, 255, 255}, pixel(img, size/2, size/2))
}

func TestRenderNormalSourcesAgree(t *testing.T) {
	normals := []layout.PackedFloat3{
		layout.PackedFloat3(common.Normalize3([3]float32{-0.4, -0.3, 1})),
		layout.PackedFloat3(common.Normalize3([3]float32{0.5, -0.2, 1})),
		layout.PackedFloat3(common.Normalize3([3]float32{0.3, 0.6, 1})),
		layout.PackedFloat3(common.Normalize3([3]float32{-0.2, 0.4, 1})),
	}
	models := []model.Model{quad(t, 0, normals, testMaterial())}
	f := testFrame(lit)

	compressed, err := NewRenderer(WithNormalSource(NormalsCompressed)).Render(context.Background(), models, f)
	require.NoError(t, err)
	uncompressed, err := NewRenderer(WithNormalSource(NormalsUncompressed)).Render(context.Background(), models, f)
	require.NoError(t, err)

	for y := range size {
		for x := range size {
			a, b := pixel(compressed, x, y), pixel(uncompressed, x, y)
			for k := range 4 {
				require.InDelta(t, a[k], b[k], 2, "pixel (%d,%d) channel %d", x, y, k)
			}
		}
	}
}

func TestRenderDepthOrdering(t *testing.T) {
	red := [4]float32{1, 0, 0, 1}
	green := [4]float32{0, 1, 0, 1}
	far := quad(t, 0, nil, flat(red))
	near := quad(t, 0.5, nil, flat(green))
	f := testFrame(ambient)
	r := NewRenderer()

	for _, order := range [][]model.Model{{far, near}, {near, far}} {
		img, err := r.Render(context.Background(), order, f)
		require.NoError(t, err)
		assert.Equal(t, [4]int{0, 255, 0, 255}, pixel(img, size/2, size/2))
	}
}

func TestRenderBandingIsDeterministic(t *testing.T) {
	models := []model.Model{quad(t, 0, nil, testMaterial())}
	f := testFrame(lit)
	a, err := NewRenderer(WithRowsPerTask(1), WithWorkers(4)).Render(context.Background(), models, f)
	require.NoError(t, err)
	b, err := NewRenderer(WithRowsPerTask(size), WithWorkers(1)).Render(context.Background(), models, f)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestRenderSkipsGeometryBehindCamera(t *testing.T) {
	img, err := NewRenderer().Render(context.Background(), []model.Model{quad(t, 5, nil, testMaterial())}, testFrame(lit))
	require.NoError(t, err)
	for y := range size {
		for x := range size {
			require.Equal(t, [4]int{0, 0, 0, 255}, pixel(img, x, y))
		}
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer()
	m := quad(t, 0, nil, testMaterial())

	t.Run("empty frame", func(t *testing.T) {
		f := testFrame(lit)
		f.Width = 0
		_, err := r.Render(context.Background(), []model.Model{m}, f)
		assert.ErrorIs(t, err, ErrInvalidFrame)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Render(ctx, []model.Model{m}, testFrame(lit))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("singular transform", func(t *testing.T) {
		m.SetTransform(model.Transform{Scale: [3]float32{0, 1, 1}})
		_, err := r.Render(context.Background(), []model.Model{m}, testFrame(lit))
		assert.ErrorIs(t, err, model.ErrSingularTransform)
	})
}

func TestRenderRecordsProfile(t *testing.T) {
	p := profiler.NewProfiler()
	_, err := NewRenderer(WithProfiler(p)).Render(context.Background(), []model.Model{quad(t, 0, nil, testMaterial())}, testFrame(lit))
	require.NoError(t, err)

	var names []string
	for _, s := range p.Stages() {
		names = append(names, s.Name)
		assert.Equal(t, 1, s.Count)
	}
	assert.Equal(t, []string{"raster.setup", "raster.shade"}, names)
}
