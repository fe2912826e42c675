package scene

import (
	"fmt"
	stdmath "math"

	"github.com/nodal-gl/nodal/engine/gpu"
	"github.com/nodal-gl/nodal/engine/math"
)

// GeometryProvider is implemented by every node accepted as a render node's
// rasterization source: a raw Geometry or one of the shape nodes.
type GeometryProvider interface {
	Node
	// Geometry returns the described geometry, nil before init.
	Geometry() *Geometry
}

// Geometry describes vertex data and how it assembles into primitives.
type Geometry struct {
	Label string
	/** @brief Per-vertex positions. Required. */
	Vertices *Buffer
	/** @brief Per-vertex texture coordinates, optional. */
	UVCoords *Buffer
	/** @brief Per-vertex normals, optional. */
	Normals *Buffer
	/** @brief Index buffer, optional. Presence selects indexed draws. */
	Indices *Buffer
	/** @brief The primitive topology the vertices assemble into. */
	Topology gpu.Topology

	initialized bool
}

func (g *Geometry) Class() Class {
	return Class{
		Name: "Geometry",
		Doc:  "vertex, texture coordinate, normal and index buffers with a topology",
		Params: []ParamDoc{
			{"vertices", "vertex position buffer"},
			{"uvcoords", "texture coordinate buffer"},
			{"normals", "normal buffer"},
			{"indices", "index buffer"},
			{"topology", "primitive topology"},
		},
	}
}

func (g *Geometry) Geometry() *Geometry {
	return g
}

func (g *Geometry) Init(c *Context) error {
	if g.initialized {
		return nil
	}
	if g.Vertices == nil {
		return fmt.Errorf("geometry %q has no vertex buffer", g.Label)
	}
	for _, b := range []*Buffer{g.Vertices, g.UVCoords, g.Normals, g.Indices} {
		if b == nil {
			continue
		}
		if err := b.Init(c); err != nil {
			return err
		}
	}
	g.initialized = true
	return nil
}

func (g *Geometry) Uninit(c *Context) {
	for _, b := range []*Buffer{g.Vertices, g.UVCoords, g.Normals, g.Indices} {
		if b != nil {
			b.Uninit(c)
		}
	}
	g.initialized = false
}

func (g *Geometry) Update(c *Context, t float64) error {
	for _, b := range []*Buffer{g.Vertices, g.UVCoords, g.Normals, g.Indices} {
		if b == nil {
			continue
		}
		if err := b.Update(c, t); err != nil {
			return err
		}
	}
	return nil
}

func (g *Geometry) Draw(c *Context) {}

// Quad is a parallelogram built from a corner and two edge vectors,
// assembled as a four-vertex triangle strip.
type Quad struct {
	Label    string
	Corner   math.Vec3
	Width    math.Vec3
	Height   math.Vec3
	UVCorner math.Vec2
	UVWidth  math.Vec2
	UVHeight math.Vec2

	geometry *Geometry
}

// NewQuad returns a unit quad centered on the origin in the XY plane.
func NewQuad() *Quad {
	return &Quad{
		Corner:   math.Vec3{X: -0.5, Y: -0.5},
		Width:    math.Vec3{X: 1.0},
		Height:   math.Vec3{Y: 1.0},
		UVWidth:  math.Vec2{X: 1.0},
		UVHeight: math.Vec2{Y: 1.0},
	}
}

func (q *Quad) Class() Class {
	return Class{
		Name: "Quad",
		Doc:  "parallelogram defined by a corner and two edge vectors",
		Params: []ParamDoc{
			{"corner", "origin corner of the quad"},
			{"width", "edge vector along the first side"},
			{"height", "edge vector along the second side"},
			{"uv_corner", "texture coordinate of the corner"},
			{"uv_width", "texture coordinate extent along the first side"},
			{"uv_height", "texture coordinate extent along the second side"},
		},
	}
}

func (q *Quad) Geometry() *Geometry {
	return q.geometry
}

func (q *Quad) Init(c *Context) error {
	if q.geometry != nil {
		return nil
	}
	cn, w, h := q.Corner, q.Width, q.Height
	vertices := []float32{
		cn.X, cn.Y, cn.Z,
		cn.X + w.X, cn.Y + w.Y, cn.Z + w.Z,
		cn.X + h.X, cn.Y + h.Y, cn.Z + h.Z,
		cn.X + w.X + h.X, cn.Y + w.Y + h.Y, cn.Z + w.Z + h.Z,
	}
	uc, uw, uh := q.UVCorner, q.UVWidth, q.UVHeight
	uvs := []float32{
		uc.X, uc.Y,
		uc.X + uw.X, uc.Y + uw.Y,
		uc.X + uh.X, uc.Y + uh.Y,
		uc.X + uw.X + uh.X, uc.Y + uw.Y + uh.Y,
	}
	n := cross(w, h)
	normals := []float32{
		n.X, n.Y, n.Z,
		n.X, n.Y, n.Z,
		n.X, n.Y, n.Z,
		n.X, n.Y, n.Z,
	}
	q.geometry = &Geometry{
		Label:    labelOr(q.Label, "quad"),
		Vertices: NewBufferFloats(gpu.FormatRGB32Float, vertices),
		UVCoords: NewBufferFloats(gpu.FormatRG32Float, uvs),
		Normals:  NewBufferFloats(gpu.FormatRGB32Float, normals),
		Topology: gpu.TopologyTriangleStrip,
	}
	return q.geometry.Init(c)
}

func (q *Quad) Uninit(c *Context) {
	if q.geometry != nil {
		q.geometry.Uninit(c)
		q.geometry = nil
	}
}

func (q *Quad) Update(c *Context, t float64) error {
	return q.geometry.Update(c, t)
}

func (q *Quad) Draw(c *Context) {}

// Triangle is a single triangle defined by its three corners.
type Triangle struct {
	Label string
	Edges [3]math.Vec3
	UVs   [3]math.Vec2

	geometry *Geometry
}

// NewTriangle returns an equilateral-ish triangle spanning the XY plane.
func NewTriangle() *Triangle {
	return &Triangle{
		Edges: [3]math.Vec3{
			{X: 0.0, Y: 0.5},
			{X: -0.5, Y: -0.5},
			{X: 0.5, Y: -0.5},
		},
		UVs: [3]math.Vec2{
			{X: 0.5, Y: 1.0},
			{X: 0.0, Y: 0.0},
			{X: 1.0, Y: 0.0},
		},
	}
}

func (tr *Triangle) Class() Class {
	return Class{
		Name: "Triangle",
		Doc:  "triangle defined by its three corners",
		Params: []ParamDoc{
			{"edges", "the three corner positions"},
			{"uvs", "the three corner texture coordinates"},
		},
	}
}

func (tr *Triangle) Geometry() *Geometry {
	return tr.geometry
}

func (tr *Triangle) Init(c *Context) error {
	if tr.geometry != nil {
		return nil
	}
	var vertices []float32
	var uvs []float32
	for i := 0; i < 3; i++ {
		vertices = append(vertices, tr.Edges[i].X, tr.Edges[i].Y, tr.Edges[i].Z)
		uvs = append(uvs, tr.UVs[i].X, tr.UVs[i].Y)
	}
	n := cross(sub(tr.Edges[1], tr.Edges[0]), sub(tr.Edges[2], tr.Edges[0]))
	normals := []float32{
		n.X, n.Y, n.Z,
		n.X, n.Y, n.Z,
		n.X, n.Y, n.Z,
	}
	tr.geometry = &Geometry{
		Label:    labelOr(tr.Label, "triangle"),
		Vertices: NewBufferFloats(gpu.FormatRGB32Float, vertices),
		UVCoords: NewBufferFloats(gpu.FormatRG32Float, uvs),
		Normals:  NewBufferFloats(gpu.FormatRGB32Float, normals),
		Topology: gpu.TopologyTriangles,
	}
	return tr.geometry.Init(c)
}

func (tr *Triangle) Uninit(c *Context) {
	if tr.geometry != nil {
		tr.geometry.Uninit(c)
		tr.geometry = nil
	}
}

func (tr *Triangle) Update(c *Context, t float64) error {
	return tr.geometry.Update(c, t)
}

func (tr *Triangle) Draw(c *Context) {}

// Circle is a flat disc tessellated as a triangle fan around its center.
type Circle struct {
	Label   string
	Radius  float32
	NPoints int

	geometry *Geometry
}

// NewCircle returns a unit-radius circle with the default tessellation.
func NewCircle() *Circle {
	return &Circle{
		Radius:  1.0,
		NPoints: 16,
	}
}

func (ci *Circle) Class() Class {
	return Class{
		Name: "Circle",
		Doc:  "flat disc tessellated around its center",
		Params: []ParamDoc{
			{"radius", "radius of the disc"},
			{"npoints", "number of rim points, at least 3"},
		},
	}
}

func (ci *Circle) Geometry() *Geometry {
	return ci.geometry
}

func (ci *Circle) Init(c *Context) error {
	if ci.geometry != nil {
		return nil
	}
	if ci.NPoints < 3 {
		return fmt.Errorf("circle %q needs at least 3 points, got %d", ci.Label, ci.NPoints)
	}
	// Fan layout: center, then the rim with the first point repeated to
	// close the disc.
	count := ci.NPoints + 2
	vertices := make([]float32, 0, 3*count)
	uvs := make([]float32, 0, 2*count)
	normals := make([]float32, 0, 3*count)
	vertices = append(vertices, 0, 0, 0)
	uvs = append(uvs, 0.5, 0.5)
	for i := 0; i <= ci.NPoints; i++ {
		angle := float64(i%ci.NPoints) / float64(ci.NPoints) * float64(math.TwoPi)
		x := ci.Radius * float32(stdmath.Cos(angle))
		y := ci.Radius * float32(stdmath.Sin(angle))
		vertices = append(vertices, x, y, 0)
		u := math.Clamp(x/(2*ci.Radius)+0.5, 0, 1)
		v := math.Clamp(y/(2*ci.Radius)+0.5, 0, 1)
		uvs = append(uvs, u, v)
	}
	for i := 0; i < count; i++ {
		normals = append(normals, 0, 0, 1)
	}
	ci.geometry = &Geometry{
		Label:    labelOr(ci.Label, "circle"),
		Vertices: NewBufferFloats(gpu.FormatRGB32Float, vertices),
		UVCoords: NewBufferFloats(gpu.FormatRG32Float, uvs),
		Normals:  NewBufferFloats(gpu.FormatRGB32Float, normals),
		Topology: gpu.TopologyTriangleFan,
	}
	return ci.geometry.Init(c)
}

func (ci *Circle) Uninit(c *Context) {
	if ci.geometry != nil {
		ci.geometry.Uninit(c)
		ci.geometry = nil
	}
}

func (ci *Circle) Update(c *Context, t float64) error {
	return ci.geometry.Update(c, t)
}

func (ci *Circle) Draw(c *Context) {}

func cross(a, b math.Vec3) math.Vec3 {
	return math.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func sub(a, b math.Vec3) math.Vec3 {
	return math.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}
