package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

func TestGPUProjectedSpaceLayout(t *testing.T) {
	require.NoError(t, layout.CheckStruct(GPUProjectedSpace{}, GPUProjectedSpaceSource, "ProjectedSpace"))
	g := GPUProjectedSpace{}
	assert.Equal(t, 144, g.Size())
	assert.Len(t, g.Marshal(), 144)
}

func TestOrbitControllerPosition(t *testing.T) {
	cc := NewOrbitController(WithRadius(2), WithElevation(0), WithAzimuth(0), WithTarget([3]float32{1, 0, 0}))
	pos := cc.Position()
	assert.InDeltaSlice(t, []float32{1, 0, 2}, pos[:], 1e-6)

	cc.SetAzimuth(math32.Pi / 2)
	pos = cc.Position()
	assert.InDeltaSlice(t, []float32{3, 0, 0}, pos[:], 1e-6)

	cc.SetElevation(10)
	assert.Less(t, cc.Elevation(), math32.Pi/2)

	cc.Zoom(1)
	assert.InDelta(t, 1, cc.Radius(), 1e-6)
}

func TestOrbitRightFullTurn(t *testing.T) {
	cc := NewOrbitController(WithRadius(5), WithOrbitStep(math32.Pi/2))
	start := cc.Position()
	for range 4 {
		cc.OrbitRight()
	}
	end := cc.Position()
	assert.InDeltaSlice(t, start[:], end[:], 1e-5)
}

func TestProjectedSpaceRoundTrip(t *testing.T) {
	cam := NewCamera(
		WithAspect(16.0/9.0),
		WithController(NewOrbitController(WithRadius(4), WithElevation(0.3), WithAzimuth(0.7))),
	)
	const w, h = 320, 180
	ps, err := cam.ProjectedSpace(w, h)
	require.NoError(t, err)

	eye := cam.Position()
	assert.Equal(t, layout.Float4{eye[0], eye[1], eye[2], 1}, ps.PositionWorld)

	world := [3]float32{0.3, -0.2, 0.5}
	clip := common.MulPoint4(ps.WorldToProjection[:], world)
	ndc := [3]float32{clip[0] / clip[3], clip[1] / clip[3], clip[2] / clip[3]}
	screen := [3]float32{(ndc[0] + 1) * w / 2, (1 - ndc[1]) * h / 2, ndc[2]}

	back := common.MulPoint4(ps.ScreenToWorld[:], screen)
	for i := range 3 {
		assert.InDelta(t, world[i], back[i]/back[3], 1e-3, "axis %d", i)
	}
}

func TestProjectedSpaceSingular(t *testing.T) {
	_, err := NewProjectedSpace([16]float32{}, [3]float32{}, 10, 10)
	assert.ErrorIs(t, err, ErrSingularProjection)
}

func TestCameraWithoutController(t *testing.T) {
	cam := NewCamera()
	var id [16]float32
	common.Identity(id[:])
	assert.Equal(t, id, cam.ViewProjectionMatrix())
	assert.Equal(t, [3]float32{}, cam.Position())
}
