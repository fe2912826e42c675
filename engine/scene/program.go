package scene

import (
	"fmt"

	"github.com/nodal-gl/nodal/engine/gpu"
)

const defaultVertexSource = `
precision highp float;
attribute vec4 ngl_position;
attribute vec2 ngl_uvcoord;
attribute vec3 ngl_normal;
uniform mat4 ngl_modelview_matrix;
uniform mat4 ngl_projection_matrix;
varying vec2 var_uvcoord;
varying vec3 var_normal;

void main()
{
    gl_Position = ngl_projection_matrix * ngl_modelview_matrix * ngl_position;
    var_uvcoord = ngl_uvcoord;
    var_normal = ngl_normal;
}
`

const defaultFragmentSource = `
precision highp float;
varying vec2 var_uvcoord;

void main()
{
    gl_FragColor = vec4(var_uvcoord, 0.0, 1.0);
}
`

// Program is a node pairing a vertex and a fragment shader, linked through
// the GPU context at init time.
type Program struct {
	Label          string
	VertexSource   string
	FragmentSource string

	id          gpu.ProgramID
	initialized bool
}

// NewProgram builds a program node from the two shader sources.
func NewProgram(vertexSource, fragmentSource string) *Program {
	return &Program{
		VertexSource:   vertexSource,
		FragmentSource: fragmentSource,
	}
}

// NewDefaultProgram builds the passthrough program a render node falls back
// to when none is supplied. It binds every geometry-intrinsic attribute.
func NewDefaultProgram() *Program {
	p := NewProgram(defaultVertexSource, defaultFragmentSource)
	p.Label = newLabel("default-program")
	return p
}

func (p *Program) Class() Class {
	return Class{
		Name: "Program",
		Doc:  "vertex and fragment shader pair",
		Params: []ParamDoc{
			{"vertex", "vertex shader source"},
			{"fragment", "fragment shader source"},
		},
	}
}

func (p *Program) Init(c *Context) error {
	if p.initialized {
		return nil
	}
	p.Label = labelOr(p.Label, "program")
	id, err := c.GPU.CreateProgram(p.VertexSource, p.FragmentSource)
	if err != nil {
		return fmt.Errorf("program %q link: %w", p.Label, err)
	}
	p.id = id
	p.initialized = true
	return nil
}

func (p *Program) Uninit(c *Context) {
	if !p.initialized {
		return
	}
	c.GPU.DeleteProgram(p.id)
	p.id = 0
	p.initialized = false
}

func (p *Program) Update(c *Context, t float64) error {
	return nil
}

func (p *Program) Draw(c *Context) {}

// ID returns the linked device program handle, zero before init.
func (p *Program) ID() gpu.ProgramID {
	return p.id
}
