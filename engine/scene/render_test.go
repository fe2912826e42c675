package scene

import (
	"errors"
	"strings"
	"testing"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
)

const testVertexSource = `
precision highp float;
attribute vec4 ngl_position;
attribute vec2 ngl_uvcoord;
attribute vec3 ngl_normal;
attribute float a_custom;
attribute vec3 offset;
uniform float opacity;
uniform Settings {
    vec4 tint;
};

void main()
{
    gl_Position = ngl_position;
}
`

const testFragmentSource = `
precision highp float;
uniform sampler2D tex0;

void main()
{
    gl_FragColor = vec4(1.0);
}
`

const allFeatures = gpu.FeatureDrawInstanced | gpu.FeatureInstancedArray | gpu.FeatureUniformBlock

func testContext(features gpu.Feature) (*Context, *gpu.Headless) {
	h := gpu.NewHeadless(features)
	return NewContext(h), h
}

func testGeometry(nvertices int, indices []uint16) *Geometry {
	g := &Geometry{
		Label:    "test-geometry",
		Vertices: NewBufferFloats(gpu.FormatRGB32Float, make([]float32, 3*nvertices)),
		Topology: gpu.TopologyTriangles,
	}
	if indices != nil {
		g.Indices = NewBufferUint16(indices)
	}
	return g
}

func testProgram() *Program {
	return NewProgram(testVertexSource, testFragmentSource)
}

func TestRenderRequiresGeometry(t *testing.T) {
	if _, err := NewRender(RenderConfig{}); err == nil {
		t.Fatal("NewRender without geometry should fail")
	}
	if _, err := NewRender(RenderConfig{Geometry: testGeometry(3, nil), Instances: -1}); err == nil {
		t.Fatal("NewRender with negative instance count should fail")
	}
}

func TestRenderInitAttributeCountMismatch(t *testing.T) {
	c, _ := testContext(allFeatures)
	r, err := NewRender(RenderConfig{
		Geometry: testGeometry(4, nil),
		Program:  testProgram(),
		Attributes: map[string]*Buffer{
			"a_custom": NewBufferFloats(gpu.FormatR32Float, make([]float32, 3)),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = r.Init(c)
	if !errors.Is(err, core.ErrAttributeCountMismatch) {
		t.Fatalf("Init() = %v, want ErrAttributeCountMismatch", err)
	}
	for _, want := range []string{"a_custom", "(3)", "(4)"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
	r.Uninit(c)
}

func TestRenderInitInstanceAttributeCountMismatch(t *testing.T) {
	c, _ := testContext(allFeatures)
	r, err := NewRender(RenderConfig{
		Geometry: testGeometry(4, nil),
		Program:  testProgram(),
		InstanceAttributes: map[string]*Buffer{
			"offset": NewBufferFloats(gpu.FormatRGB32Float, make([]float32, 3*5)),
		},
		Instances: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = r.Init(c)
	if !errors.Is(err, core.ErrAttributeCountMismatch) {
		t.Fatalf("Init() = %v, want ErrAttributeCountMismatch", err)
	}
	for _, want := range []string{"offset", "(5)", "(2)"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestRenderInitWithoutInstancedDrawSupport(t *testing.T) {
	c, h := testContext(0)
	r, err := NewRender(RenderConfig{
		Geometry:  testGeometry(4, nil),
		Program:   testProgram(),
		Instances: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = r.Init(c)
	if !errors.Is(err, core.ErrUnsupportedCapability) {
		t.Fatalf("Init() = %v, want ErrUnsupportedCapability", err)
	}
	if n := h.AliveBuffers(); n != 0 {
		t.Errorf("failed init allocated %d device buffers, want 0", n)
	}
	if n := h.AlivePrograms(); n != 0 {
		t.Errorf("failed init linked %d programs, want 0", n)
	}
	// Tearing down the partially constructed node must not touch the device.
	r.Uninit(c)
	if n := h.AliveBuffers(); n != 0 {
		t.Errorf("uninit after failed init touched device buffers: %d alive", n)
	}
}

func TestRenderInitWithoutInstancedArraySupport(t *testing.T) {
	c, _ := testContext(gpu.FeatureDrawInstanced)
	r, err := NewRender(RenderConfig{
		Geometry: testGeometry(4, nil),
		Program:  testProgram(),
		InstanceAttributes: map[string]*Buffer{
			"offset": NewBufferFloats(gpu.FormatRGB32Float, make([]float32, 3*2)),
		},
		Instances: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); !errors.Is(err, core.ErrUnsupportedCapability) {
		t.Fatalf("Init() = %v, want ErrUnsupportedCapability", err)
	}
}

func TestResolveAttributesIntrinsicOverride(t *testing.T) {
	c, _ := testContext(allFeatures)
	geometry := testGeometry(4, nil)
	override := NewBufferFloats(gpu.FormatRGB32Float, make([]float32, 3*4))
	r, err := NewRender(RenderConfig{
		Geometry: geometry,
		Program:  testProgram(),
		Attributes: map[string]*Buffer{
			AttributePosition: override,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); err != nil {
		t.Fatal(err)
	}
	defer r.Uninit(c)

	if got := r.resolvedAttributes[AttributePosition]; got != geometry.Vertices {
		t.Error("intrinsic position buffer should override the explicit entry")
	}

	// Re-resolving produces the same outcome.
	r.resolveAttributes()
	if got := r.resolvedAttributes[AttributePosition]; got != geometry.Vertices {
		t.Error("resolution is not idempotent")
	}
}

func TestDrawModeSelection(t *testing.T) {
	tests := []struct {
		name      string
		indices   []uint16
		instances int
		mode      drawMode
		kind      gpu.DrawKind
	}{
		{"arrays", nil, 0, drawModeArrays, gpu.DrawKindArrays},
		{"arrays instanced", nil, 3, drawModeArraysInstanced, gpu.DrawKindArraysInstanced},
		{"elements", []uint16{0, 1, 2}, 0, drawModeElements, gpu.DrawKindElements},
		{"elements instanced", []uint16{0, 1, 2}, 3, drawModeElementsInstanced, gpu.DrawKindElementsInstanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, h := testContext(allFeatures)
			r, err := NewRender(RenderConfig{
				Geometry:  testGeometry(4, tt.indices),
				Program:   testProgram(),
				Instances: tt.instances,
			})
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Init(c); err != nil {
				t.Fatal(err)
			}
			defer r.Uninit(c)

			if r.mode != tt.mode {
				t.Fatalf("mode = %d, want %d", r.mode, tt.mode)
			}

			// The strategy never changes across frames.
			for frame := 0; frame < 2; frame++ {
				if err := r.Update(c, float64(frame)); err != nil {
					t.Fatal(err)
				}
				r.Draw(c)
			}
			if len(h.Draws) != 2 {
				t.Fatalf("recorded %d draws, want 2", len(h.Draws))
			}
			for _, d := range h.Draws {
				if d.Kind != tt.kind {
					t.Errorf("draw kind = %d, want %d", d.Kind, tt.kind)
				}
			}
		})
	}
}

func TestIndexBufferSharedReference(t *testing.T) {
	const n = 3
	c, h := testContext(allFeatures)
	geometry := testGeometry(4, []uint16{0, 1, 2, 2, 1, 3})
	program := testProgram()

	renders := make([]*Render, n)
	for i := range renders {
		r, err := NewRender(RenderConfig{
			Geometry: geometry,
			Program:  program,
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Init(c); err != nil {
			t.Fatal(err)
		}
		renders[i] = r
	}

	if got := geometry.Indices.RefCount(); got != n {
		t.Fatalf("index buffer reference count = %d, want %d", got, n)
	}

	for _, r := range renders {
		r.Uninit(c)
	}
	if got := geometry.Indices.RefCount(); got != 0 {
		t.Fatalf("index buffer reference count after uninit = %d, want 0", got)
	}
	program.Uninit(c)
	if n := h.AliveBuffers(); n != 0 {
		t.Errorf("%d device buffers leaked", n)
	}
}

func TestIndexReferenceReleaseAfterPartialInit(t *testing.T) {
	c, _ := testContext(allFeatures)

	// This node fails before the index acquisition step; its uninit must
	// not decrement the shared count.
	geometry := testGeometry(4, []uint16{0, 1, 2})
	early, err := NewRender(RenderConfig{
		Geometry: geometry,
		Program:  testProgram(),
		Attributes: map[string]*Buffer{
			"a_custom": NewBufferFloats(gpu.FormatR32Float, make([]float32, 9)),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := early.Init(c); !errors.Is(err, core.ErrAttributeCountMismatch) {
		t.Fatalf("Init() = %v, want ErrAttributeCountMismatch", err)
	}
	early.Uninit(c)
	if got := geometry.Indices.RefCount(); got != 0 {
		t.Fatalf("reference count = %d, want 0", got)
	}

	// This one acquires the reference and then fails; its uninit releases.
	block := &Block{Label: "idx-block", Data: make([]byte, 64)}
	if err := block.Init(c); err != nil {
		t.Fatal(err)
	}
	blocked := &Geometry{
		Vertices: NewBufferFloats(gpu.FormatRGB32Float, make([]float32, 12)),
		Indices:  block.BufferView(gpu.FormatR16UInt, 3),
		Topology: gpu.TopologyTriangles,
	}
	late, err := NewRender(RenderConfig{
		Geometry: blocked,
		Program:  testProgram(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := late.Init(c); !errors.Is(err, core.ErrBlockBackedIndices) {
		t.Fatalf("Init() = %v, want ErrBlockBackedIndices", err)
	}
	if got := blocked.Indices.RefCount(); got != 1 {
		t.Fatalf("reference count before uninit = %d, want 1", got)
	}
	late.Uninit(c)
	if got := blocked.Indices.RefCount(); got != 0 {
		t.Fatalf("reference count after uninit = %d, want 0", got)
	}
}

func TestRenderDefaultProgram(t *testing.T) {
	c, h := testContext(allFeatures)
	r, err := NewRender(RenderConfig{Geometry: NewQuad()})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); err != nil {
		t.Fatal(err)
	}
	if n := h.AlivePrograms(); n != 1 {
		t.Fatalf("%d programs linked, want 1", n)
	}

	r.Uninit(c)
	// The defaulted program belongs to the context, not the render node.
	if n := h.AlivePrograms(); n != 1 {
		t.Fatalf("%d programs after node uninit, want 1", n)
	}
	c.Release()
	if n := h.AlivePrograms(); n != 0 {
		t.Fatalf("%d programs after context release, want 0", n)
	}
}

func TestRenderDrawArrayScenario(t *testing.T) {
	c, h := testContext(allFeatures)
	r, err := NewRender(RenderConfig{
		Geometry: testGeometry(100, nil),
		Program:  testProgram(),
		Uniforms: map[string]Uniform{
			"opacity": &UniformFloat{Value: 0.5},
		},
		Textures: map[string]*Texture{
			"tex0": NewTexture(2, 2, gpu.FormatRGBA8Unorm, make([]byte, 16)),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); err != nil {
		t.Fatal(err)
	}
	defer r.Uninit(c)

	if r.mode != drawModeArrays {
		t.Fatalf("mode = %d, want array draw", r.mode)
	}
	if err := r.Update(c, 0); err != nil {
		t.Fatal(err)
	}
	r.Draw(c)

	if len(h.Draws) != 1 {
		t.Fatalf("recorded %d draws, want 1", len(h.Draws))
	}
	d := h.Draws[0]
	if d.Kind != gpu.DrawKindArrays || d.First != 0 || d.Count != 100 {
		t.Errorf("draw = %+v, want arrays over 100 vertices", d)
	}
}

func TestRenderDrawIndexedInstancedScenario(t *testing.T) {
	c, h := testContext(allFeatures)
	indices := make([]uint16, 50)
	r, err := NewRender(RenderConfig{
		Geometry:  testGeometry(8, indices),
		Program:   testProgram(),
		Instances: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); err != nil {
		t.Fatal(err)
	}
	defer r.Uninit(c)

	if r.indexType != gpu.ElementTypeUnsignedShort {
		t.Errorf("index element type = %d, want unsigned short", r.indexType)
	}
	if err := r.Update(c, 0); err != nil {
		t.Fatal(err)
	}
	r.Draw(c)

	if len(h.Draws) != 1 {
		t.Fatalf("recorded %d draws, want 1", len(h.Draws))
	}
	d := h.Draws[0]
	if d.Kind != gpu.DrawKindElementsInstanced {
		t.Fatalf("draw kind = %d, want indexed instanced", d.Kind)
	}
	if d.Count != 50 || d.Instances != 10 {
		t.Errorf("draw = %+v, want 50 indices and 10 instances", d)
	}
	if d.ElementType != gpu.ElementTypeUnsignedShort {
		t.Errorf("draw element type = %d, want unsigned short", d.ElementType)
	}
	if d.IndexBuffer == 0 {
		t.Error("draw should carry the bound index buffer")
	}
}

func TestRenderBufferUniform(t *testing.T) {
	src := `
attribute vec4 ngl_position;
uniform vec4 weights;
`
	c, h := testContext(allFeatures)
	weights := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	r, err := NewRender(RenderConfig{
		Geometry: testGeometry(4, nil),
		Program:  NewProgram(src, "void main() {}"),
		Uniforms: map[string]Uniform{
			"weights": NewBufferFloats(gpu.FormatRGBA32Float, weights),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); err != nil {
		t.Fatal(err)
	}
	defer r.Uninit(c)

	if err := r.Update(c, 0); err != nil {
		t.Fatal(err)
	}
	r.Draw(c)

	loc, ok := h.UniformLocation(r.program.ID(), "weights")
	if !ok {
		t.Fatal("program should expose the weights uniform")
	}
	uploaded, ok := h.UniformFloats(loc)
	if !ok {
		t.Fatal("buffer uniform was never uploaded")
	}
	if len(uploaded) != len(weights) {
		t.Fatalf("uploaded %d values, want %d", len(uploaded), len(weights))
	}
	for i, v := range weights {
		if uploaded[i] != v {
			t.Errorf("value %d = %v, want %v", i, uploaded[i], v)
		}
	}
}

func TestRenderMat4InstanceAttribute(t *testing.T) {
	src := `
attribute vec4 ngl_position;
attribute mat4 model;
`
	c, h := testContext(allFeatures)
	r, err := NewRender(RenderConfig{
		Geometry: testGeometry(4, nil),
		Program:  NewProgram(src, "void main() {}"),
		InstanceAttributes: map[string]*Buffer{
			"model": NewBufferFloats(gpu.FormatMat4, make([]float32, 16*2)),
		},
		Instances: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); err != nil {
		t.Fatal(err)
	}
	defer r.Uninit(c)

	if err := r.pass.bind(c); err != nil {
		t.Fatal(err)
	}
	loc, _ := h.AttributeLocation(r.program.ID(), "model")
	for i := 0; i < 4; i++ {
		if _, ok := h.AttributeBinding(loc + i); !ok {
			t.Errorf("mat4 column %d not bound", i)
		}
	}
	r.pass.unbind(c)
}

func TestRenderBindFailureIsNonFatal(t *testing.T) {
	c, h := testContext(allFeatures)
	r, err := NewRender(RenderConfig{
		Geometry: testGeometry(4, nil),
		Program:  testProgram(),
		Uniforms: map[string]Uniform{
			"opacity": &UniformFloat{Value: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); err != nil {
		t.Fatal(err)
	}
	defer r.Uninit(c)

	h.FailUniforms = errors.New("device lost")
	r.Draw(c)
	if len(h.Draws) != 1 {
		t.Fatalf("draw skipped after bind failure: %d draws recorded", len(h.Draws))
	}
}

type failingGeometry struct {
	inner *Geometry
	err   error
}

func (f *failingGeometry) Geometry() *Geometry { return f.inner.Geometry() }

func (f *failingGeometry) Init(c *Context) error { return f.inner.Init(c) }

func (f *failingGeometry) Uninit(c *Context) { f.inner.Uninit(c) }

func (f *failingGeometry) Draw(c *Context) { f.inner.Draw(c) }

func (f *failingGeometry) Update(c *Context, t float64) error {
	return f.err
}

func TestRenderUpdatePropagatesGeometryFailure(t *testing.T) {
	c, _ := testContext(allFeatures)
	wantErr := errors.New("animation failure")
	r, err := NewRender(RenderConfig{
		Geometry: &failingGeometry{inner: testGeometry(4, nil), err: wantErr},
		Program:  testProgram(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Init(c); err != nil {
		t.Fatal(err)
	}
	defer r.Uninit(c)

	if err := r.Update(c, 1.0); !errors.Is(err, wantErr) {
		t.Fatalf("Update() = %v, want the geometry failure", err)
	}
}
