package scene

import (
	"github.com/nodal-gl/nodal/engine/gpu"
	"github.com/nodal-gl/nodal/engine/math"
)

// Uniform is a node whose value a pass uploads to one program input each
// frame. Values may be reassigned between frames; the pass re-uploads on
// every bind. The typed value nodes below satisfy it, as does a float-format
// Buffer, which uploads its elements as a flat array.
type Uniform interface {
	Node
	apply(c *Context, program gpu.ProgramID, location int) error
}

// nopNode carries the empty lifecycle shared by the plain value uniforms.
type nopNode struct{}

func (nopNode) Init(c *Context) error              { return nil }
func (nopNode) Uninit(c *Context)                  {}
func (nopNode) Update(c *Context, t float64) error { return nil }
func (nopNode) Draw(c *Context)                    {}

type UniformFloat struct {
	nopNode
	Label string
	Value float32
}

func (u *UniformFloat) apply(c *Context, program gpu.ProgramID, location int) error {
	return c.GPU.SetUniformFloats(program, location, []float32{u.Value})
}

type UniformVec2 struct {
	nopNode
	Label string
	Value math.Vec2
}

func (u *UniformVec2) apply(c *Context, program gpu.ProgramID, location int) error {
	return c.GPU.SetUniformFloats(program, location, u.Value.Elements())
}

type UniformVec3 struct {
	nopNode
	Label string
	Value math.Vec3
}

func (u *UniformVec3) apply(c *Context, program gpu.ProgramID, location int) error {
	return c.GPU.SetUniformFloats(program, location, u.Value.Elements())
}

type UniformVec4 struct {
	nopNode
	Label string
	Value math.Vec4
}

func (u *UniformVec4) apply(c *Context, program gpu.ProgramID, location int) error {
	return c.GPU.SetUniformFloats(program, location, u.Value.Elements())
}

type UniformQuaternion struct {
	nopNode
	Label string
	Value math.Quaternion
}

func (u *UniformQuaternion) apply(c *Context, program gpu.ProgramID, location int) error {
	return c.GPU.SetUniformFloats(program, location, u.Value.Elements())
}

type UniformInt struct {
	nopNode
	Label string
	Value int
}

func (u *UniformInt) apply(c *Context, program gpu.ProgramID, location int) error {
	return c.GPU.SetUniformInt(program, location, u.Value)
}

type UniformMat4 struct {
	nopNode
	Label string
	Value math.Mat4
}

func (u *UniformMat4) apply(c *Context, program gpu.ProgramID, location int) error {
	return c.GPU.SetUniformFloats(program, location, u.Value.Elements())
}
