package testbed

import (
	"github.com/nodal-gl/nodal/engine"
	"github.com/nodal-gl/nodal/engine/gpu"
	"github.com/nodal-gl/nodal/engine/math"
	"github.com/nodal-gl/nodal/engine/scene"
)

const vertexSource = `
precision highp float;
attribute vec4 ngl_position;
attribute vec2 ngl_uvcoord;
attribute vec3 ngl_normal;
attribute vec3 offset;
uniform float time;
uniform mat4 transform;
varying vec2 var_uvcoord;

void main()
{
    gl_Position = transform * (ngl_position + vec4(offset, 0.0));
    var_uvcoord = ngl_uvcoord;
}
`

const fragmentSource = `
precision highp float;
uniform sampler2D tex0;
uniform vec4 color;
varying vec2 var_uvcoord;

void main()
{
    gl_FragColor = color * texture2D(tex0, var_uvcoord);
}
`

// Game bundles the demo configuration with the scene graph it renders: a
// grid of instanced quads sampling a checkerboard texture.
type Game struct {
	Config *engine.Config
	Root   scene.Node
}

// New builds the demo game.
func New(cfg *engine.Config) (*Game, error) {
	root, err := buildScene()
	if err != nil {
		return nil, err
	}
	return &Game{
		Config: cfg,
		Root:   root,
	}, nil
}

func buildScene() (scene.Node, error) {
	const instances = 9

	offsets := make([]float32, 0, 3*instances)
	for i := 0; i < instances; i++ {
		x := float32(i%3-1) * 1.5
		y := float32(i/3-1) * 1.5
		offsets = append(offsets, x, y, 0)
	}

	return scene.NewRender(scene.RenderConfig{
		Label:    "testbed-quads",
		Geometry: scene.NewQuad(),
		Program:  scene.NewProgram(vertexSource, fragmentSource),
		Textures: map[string]*scene.Texture{
			"tex0": scene.NewTexture(2, 2, gpu.FormatRGBA8Unorm, checkerboard()),
		},
		Uniforms: map[string]scene.Uniform{
			"time":      &scene.UniformFloat{Label: "time"},
			"color":     &scene.UniformVec4{Label: "color", Value: math.Vec4{X: 1, Y: 0.5, Z: 0.25, W: 1}},
			"transform": &scene.UniformMat4{Label: "transform", Value: math.NewMat4Identity()},
		},
		InstanceAttributes: map[string]*scene.Buffer{
			"offset": scene.NewBufferFloats(gpu.FormatRGB32Float, offsets),
		},
		Instances: instances,
	})
}

func checkerboard() []byte {
	return []byte{
		0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0xff,
		0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
}
