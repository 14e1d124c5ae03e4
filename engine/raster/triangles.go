package raster

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/interpolator"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// clipEpsilon rejects vertices on or behind the camera plane.
const clipEpsilon = 1e-6

// screenVertex is a projected vertex. x and y are pixel coordinates, z is depth in [0, 1].
type screenVertex struct {
	x, y, z float32
	invW    float32
	world   [3]float32
}

// drawable is the per-model state shared by that model's triangles.
type drawable struct {
	model  model.Model
	normal interpolator.Interpolator
}

// screenTriangle is one triangle ready for scan conversion.
type screenTriangle struct {
	v     [3]screenVertex
	uv    [3][2]float32
	index int
	area  float32
	draw  *drawable

	minX, maxX int
	minY, maxY int
}

// setup projects every model and builds the screen-space triangle list in model order.
func (r *renderer) setup(models []model.Model, f Frame) ([]screenTriangle, error) {
	var tris []screenTriangle
	for _, m := range models {
		mesh := m.Mesh()
		if mesh == nil || mesh.Geometry == nil {
			continue
		}
		g := mesh.Geometry
		ms, err := m.ModelSpace(f.WorldToProjection)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Name(), err)
		}
		toWorld := m.Transform().Matrix()

		d := &drawable{model: m}
		records := m.TriNormals()
		if r.normals == NormalsCompressed && len(records) == g.TriangleCount() {
			d.normal = interpolator.NewCompressed(records, ms.NormalToWorld)
		} else {
			d.normal = interpolator.NewUncompressed(g, ms.NormalToWorld)
		}

		verts := make([]screenVertex, g.VertexCount())
		visible := make([]bool, len(verts))
		for i, p := range g.Positions {
			clip := common.MulPoint4(ms.ModelToProjection[:], p)
			if clip[3] <= clipEpsilon {
				continue
			}
			invW := 1 / clip[3]
			w := common.MulPoint4(toWorld[:], p)
			verts[i] = screenVertex{
				x:     (clip[0]*invW + 1) * 0.5 * float32(f.Width),
				y:     (1 - clip[1]*invW) * 0.5 * float32(f.Height),
				z:     clip[2] * invW,
				invW:  invW,
				world: [3]float32{w[0], w[1], w[2]},
			}
			visible[i] = true
		}

		for t := range g.TriangleCount() {
			idx := g.Triangle(t)
			if !visible[idx[0]] || !visible[idx[1]] || !visible[idx[2]] {
				continue
			}
			tri := screenTriangle{
				v:     [3]screenVertex{verts[idx[0]], verts[idx[1]], verts[idx[2]]},
				index: t,
				draw:  d,
			}
			tri.area = edge(tri.v[0], tri.v[1], tri.v[2].x, tri.v[2].y)
			if math32.Abs(tri.area) < 1e-12 {
				continue
			}
			if !tri.bound(f.Width, f.Height) {
				continue
			}
			if uv, ok := g.TriangleTexCoords(t); ok {
				tri.uv = uv
			}
			tris = append(tris, tri)
		}
	}
	return tris, nil
}

// bound clips the triangle's pixel bounding box to the image. It reports false when the
// box is empty.
func (t *screenTriangle) bound(width, height int) bool {
	minX := math32.Min(t.v[0].x, math32.Min(t.v[1].x, t.v[2].x))
	maxX := math32.Max(t.v[0].x, math32.Max(t.v[1].x, t.v[2].x))
	minY := math32.Min(t.v[0].y, math32.Min(t.v[1].y, t.v[2].y))
	maxY := math32.Max(t.v[0].y, math32.Max(t.v[1].y, t.v[2].y))

	t.minX = max(int(math32.Floor(minX)), 0)
	t.maxX = min(int(math32.Ceil(maxX)), width-1)
	t.minY = max(int(math32.Floor(minY)), 0)
	t.maxY = min(int(math32.Ceil(maxY)), height-1)
	return t.minX <= t.maxX && t.minY <= t.maxY
}

// edge is twice the signed area of (a, b, p).
func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// target is the color and depth state of one Render call. Tasks write disjoint rows.
type target struct {
	img   *image.RGBA
	depth []float32
	frame Frame
	eval  shading.Evaluator
}

// shadeRows clears rows [y0, y1) and shades every triangle fragment that falls in them.
func (t *target) shadeRows(tris []screenTriangle, y0, y1 int) {
	width := t.frame.Width
	bg := toRGBA8(t.frame.Background)
	for y := y0; y < y1; y++ {
		for x := range width {
			t.depth[y*width+x] = math32.Inf(1)
			copy(t.img.Pix[t.img.PixOffset(x, y):], bg[:])
		}
	}

	for i := range tris {
		tri := &tris[i]
		if tri.maxY < y0 || tri.minY >= y1 {
			continue
		}
		for y := max(tri.minY, y0); y <= min(tri.maxY, y1-1); y++ {
			py := float32(y) + 0.5
			for x := tri.minX; x <= tri.maxX; x++ {
				t.fragment(tri, x, y, float32(x)+0.5, py)
			}
		}
	}
}

// fragment depth tests and shades one pixel center against one triangle.
func (t *target) fragment(tri *screenTriangle, x, y int, px, py float32) {
	v := &tri.v
	b0 := edge(v[1], v[2], px, py) / tri.area
	b1 := edge(v[2], v[0], px, py) / tri.area
	b2 := edge(v[0], v[1], px, py) / tri.area
	if b0 < 0 || b1 < 0 || b2 < 0 {
		return
	}
	z := b0*v[0].z + b1*v[1].z + b2*v[2].z
	if z < 0 || z > 1 {
		return
	}
	i := y*t.frame.Width + x
	if z >= t.depth[i] {
		return
	}
	t.depth[i] = z

	// Perspective-correct weights.
	p0, p1, p2 := b0*v[0].invW, b1*v[1].invW, b2*v[2].invW
	s := p0 + p1 + p2
	p0, p1, p2 = p0/s, p1/s, p2/s

	var world [3]float32
	for k := range 3 {
		world[k] = p0*v[0].world[k] + p1*v[1].world[k] + p2*v[2].world[k]
	}
	var uv [2]float32
	for k := range 2 {
		uv[k] = p0*tri.uv[0][k] + p1*tri.uv[1][k] + p2*tri.uv[2][k]
	}

	params := shading.Params{
		FragPos:   world,
		LightPos:  t.frame.LightPos,
		CameraPos: t.frame.CameraPos,
		Normal:    tri.draw.normal.Normal(tri.index, [2]float32{p1, p2}),
	}
	c := toRGBA8(t.eval(params, tri.draw.model.MaterialAt(uv, false)))
	copy(t.img.Pix[t.img.PixOffset(x, y):], c[:])
}

// toRGBA8 clamps a linear color to [0, 1] and quantizes it.
func toRGBA8(c [4]float32) [4]uint8 {
	var out [4]uint8
	for k := range 4 {
		out[k] = uint8(math32.Round(common.Clamp(c[k], 0, 1) * 255))
	}
	return out
}
