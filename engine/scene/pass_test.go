package scene

import (
	"errors"
	"testing"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
)

func compiledProgram(t *testing.T, c *Context) *Program {
	t.Helper()
	p := testProgram()
	if err := p.Init(c); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPassCompileMissingUniform(t *testing.T) {
	c, _ := testContext(allFeatures)
	p := compiledProgram(t, c)

	_, err := newPass(c, passParams{
		label:   "missing-uniform",
		program: p,
		uniforms: map[string]Uniform{
			"nonexistent": &UniformFloat{},
		},
	})
	if !errors.Is(err, core.ErrResourceCompile) {
		t.Fatalf("newPass() = %v, want ErrResourceCompile", err)
	}
}

func TestPassCompileFailureReleasesClaims(t *testing.T) {
	c, h := testContext(allFeatures)
	p := compiledProgram(t, c)

	acquired := NewBufferFloats(gpu.FormatR32Float, make([]float32, 4))
	_, err := newPass(c, passParams{
		label:   "partial",
		program: p,
		attributes: map[string]*Buffer{
			"a_custom":  acquired,
			"z_unknown": NewBufferFloats(gpu.FormatR32Float, make([]float32, 4)),
		},
	})
	if !errors.Is(err, core.ErrResourceCompile) {
		t.Fatalf("newPass() = %v, want ErrResourceCompile", err)
	}
	if got := acquired.RefCount(); got != 0 {
		t.Errorf("claim on %q not released: refcount %d", "a_custom", got)
	}
	p.Uninit(c)
	if n := h.AliveBuffers(); n != 0 {
		t.Errorf("%d device buffers leaked by failed compile", n)
	}
}

func TestPassTextureUnitsAreDeterministic(t *testing.T) {
	src := `
attribute vec4 ngl_position;
uniform sampler2D alpha;
uniform sampler2D beta;
`
	c, _ := testContext(allFeatures)
	p := NewProgram(src, "void main() {}")
	if err := p.Init(c); err != nil {
		t.Fatal(err)
	}

	pass, err := newPass(c, passParams{
		label:   "units",
		program: p,
		textures: map[string]*Texture{
			"beta":  NewTexture(1, 1, gpu.FormatRGBA8Unorm, nil),
			"alpha": NewTexture(1, 1, gpu.FormatRGBA8Unorm, nil),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pass.destroy(c)

	if pass.textures[0].name != "alpha" || pass.textures[0].unit != 0 {
		t.Errorf("first binding = %q unit %d, want alpha on 0", pass.textures[0].name, pass.textures[0].unit)
	}
	if pass.textures[1].name != "beta" || pass.textures[1].unit != 1 {
		t.Errorf("second binding = %q unit %d, want beta on 1", pass.textures[1].name, pass.textures[1].unit)
	}
}

func TestPassBindUnbind(t *testing.T) {
	c, h := testContext(allFeatures)
	p := compiledProgram(t, c)

	vertex := NewBufferFloats(gpu.FormatRGB32Float, make([]float32, 12))
	offsets := NewBufferFloats(gpu.FormatRGB32Float, make([]float32, 6))
	block := &Block{Label: "settings", Data: make([]byte, 32)}
	if err := block.Init(c); err != nil {
		t.Fatal(err)
	}

	pass, err := newPass(c, passParams{
		label:   "bindings",
		program: p,
		blocks: map[string]*Block{
			"Settings": block,
		},
		attributes: map[string]*Buffer{
			AttributePosition: vertex,
		},
		instanceAttributes: map[string]*Buffer{
			"offset": offsets,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pass.destroy(c)

	if err := pass.bind(c); err != nil {
		t.Fatal(err)
	}
	if h.ActiveProgram() != p.ID() {
		t.Error("bind should activate the pass program")
	}

	loc, ok := h.AttributeLocation(p.ID(), AttributePosition)
	if !ok {
		t.Fatal("program should expose the position attribute")
	}
	binding, ok := h.AttributeBinding(loc)
	if !ok {
		t.Fatal("position attribute not bound")
	}
	if binding.Divisor != 0 || binding.Components != 3 {
		t.Errorf("position binding = %+v, want 3 components advancing per vertex", binding)
	}

	instLoc, _ := h.AttributeLocation(p.ID(), "offset")
	instBinding, ok := h.AttributeBinding(instLoc)
	if !ok {
		t.Fatal("instance attribute not bound")
	}
	if instBinding.Divisor != 1 {
		t.Errorf("instance binding divisor = %d, want 1", instBinding.Divisor)
	}

	blockIndex, _ := h.UniformBlockIndex(p.ID(), "Settings")
	if _, ok := h.BlockBinding(blockIndex); !ok {
		t.Error("uniform block not bound")
	}

	pass.unbind(c)
	if h.ActiveProgram() != 0 {
		t.Error("unbind should deactivate the program")
	}
	if _, ok := h.AttributeBinding(loc); ok {
		t.Error("unbind should disable the position attribute")
	}
}

func TestPassDestroyIdempotent(t *testing.T) {
	c, h := testContext(allFeatures)
	p := compiledProgram(t, c)

	buffer := NewBufferFloats(gpu.FormatR32Float, make([]float32, 4))
	pass, err := newPass(c, passParams{
		label:   "destroy",
		program: p,
		attributes: map[string]*Buffer{
			"a_custom": buffer,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	pass.destroy(c)
	pass.destroy(c)
	if got := buffer.RefCount(); got != 0 {
		t.Errorf("refcount after double destroy = %d, want 0", got)
	}
	p.Uninit(c)
	if n := h.AliveBuffers(); n != 0 {
		t.Errorf("%d device buffers leaked", n)
	}
}

func TestPassMat4AttributeSpansFourLocations(t *testing.T) {
	src := `
attribute vec4 ngl_position;
attribute mat4 model;
`
	c, h := testContext(allFeatures)
	p := NewProgram(src, "void main() {}")
	if err := p.Init(c); err != nil {
		t.Fatal(err)
	}

	vertex := NewBufferFloats(gpu.FormatRGB32Float, make([]float32, 12))
	matrices := NewBufferFloats(gpu.FormatMat4, make([]float32, 32))
	pass, err := newPass(c, passParams{
		label:   "mat4",
		program: p,
		attributes: map[string]*Buffer{
			AttributePosition: vertex,
		},
		instanceAttributes: map[string]*Buffer{
			"model": matrices,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pass.destroy(c)

	if err := pass.bind(c); err != nil {
		t.Fatal(err)
	}
	loc, _ := h.AttributeLocation(p.ID(), "model")
	for i := 0; i < 4; i++ {
		binding, ok := h.AttributeBinding(loc + i)
		if !ok {
			t.Fatalf("mat4 column %d not bound", i)
		}
		if binding.Components != 4 || binding.ElementType != gpu.ElementTypeFloat {
			t.Errorf("column %d binding = %+v, want a vec4 of floats", i, binding)
		}
		if binding.Divisor != 1 {
			t.Errorf("column %d divisor = %d, want 1", i, binding.Divisor)
		}
	}

	pass.unbind(c)
	for i := 0; i < 4; i++ {
		if _, ok := h.AttributeBinding(loc + i); ok {
			t.Errorf("mat4 column %d still bound after unbind", i)
		}
	}
}

func TestPassBufferUniformRequiresFloatFormat(t *testing.T) {
	c, _ := testContext(allFeatures)
	p := compiledProgram(t, c)

	pass, err := newPass(c, passParams{
		label:   "int-uniform",
		program: p,
		uniforms: map[string]Uniform{
			"opacity": NewBufferUint16([]uint16{1, 2, 3}),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pass.destroy(c)

	if err := pass.bind(c); !errors.Is(err, core.ErrBind) {
		t.Fatalf("bind() = %v, want ErrBind for a non-float uniform source", err)
	}
}

func TestPassSamplerAssignment(t *testing.T) {
	c, h := testContext(allFeatures)
	p := compiledProgram(t, c)

	tex := NewTexture(2, 2, gpu.FormatRGBA8Unorm, make([]byte, 16))
	pass, err := newPass(c, passParams{
		label:   "sampler",
		program: p,
		textures: map[string]*Texture{
			"tex0": tex,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pass.destroy(c)

	if err := pass.bind(c); err != nil {
		t.Fatal(err)
	}
	id, ok := h.TextureBinding(0)
	if !ok || id != tex.ID() {
		t.Errorf("unit 0 = texture %d, want %d", id, tex.ID())
	}
}
