package scene

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
)

// passParams is everything a render node hands over for compilation.
type passParams struct {
	label              string
	program            *Program
	textures           map[string]*Texture
	uniforms           map[string]Uniform
	blocks             map[string]*Block
	attributes         map[string]*Buffer
	instanceAttributes map[string]*Buffer
}

type textureBinding struct {
	name     string
	unit     int
	location int
	texture  *Texture
}

type uniformBinding struct {
	name     string
	location int
	uniform  Uniform
}

type blockBinding struct {
	name  string
	index int
	block *Block
}

type attributeBinding struct {
	name     string
	location int
	buffer   *Buffer
	divisor  int
}

// Pass is the compiled binding of one program to its textures, uniforms,
// blocks and attribute buffers. Compilation resolves every declared
// resource against the program's inputs and acquires shared claims on every
// attribute buffer; bind and unbind activate and restore the configuration
// around a draw call.
type Pass struct {
	label      string
	program    *Program
	textures   []textureBinding
	uniforms   []uniformBinding
	blocks     []blockBinding
	attributes []attributeBinding

	bufferRefs []*Buffer
	blockRefs  []*Block
}

// sortedKeys gives a stable resolution order; dictionary iteration order
// itself carries no meaning.
func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// newPass compiles the resource bindings. On any failure every claim taken
// so far is released and the error propagates; nothing is left half bound.
func newPass(c *Context, params passParams) (*Pass, error) {
	p := &Pass{
		label:   params.label,
		program: params.program,
	}
	if err := p.compile(c, params); err != nil {
		p.destroy(c)
		return nil, err
	}
	return p, nil
}

func (p *Pass) compile(c *Context, params passParams) error {
	pid := p.program.ID()

	for i, name := range sortedKeys(params.textures) {
		location, ok := c.GPU.UniformLocation(pid, name)
		if !ok {
			return fmt.Errorf("pass %q: texture %q has no matching program input: %w",
				p.label, name, core.ErrResourceCompile)
		}
		tex := params.textures[name]
		if err := tex.Init(c); err != nil {
			return fmt.Errorf("pass %q: texture %q: %s: %w", p.label, name, err, core.ErrResourceCompile)
		}
		p.textures = append(p.textures, textureBinding{
			name:     name,
			unit:     i,
			location: location,
			texture:  tex,
		})
	}

	for _, name := range sortedKeys(params.uniforms) {
		location, ok := c.GPU.UniformLocation(pid, name)
		if !ok {
			return fmt.Errorf("pass %q: uniform %q has no matching program input: %w",
				p.label, name, core.ErrResourceCompile)
		}
		p.uniforms = append(p.uniforms, uniformBinding{
			name:     name,
			location: location,
			uniform:  params.uniforms[name],
		})
	}

	for _, name := range sortedKeys(params.blocks) {
		index, ok := c.GPU.UniformBlockIndex(pid, name)
		if !ok {
			return fmt.Errorf("pass %q: block %q has no matching program input: %w",
				p.label, name, core.ErrResourceCompile)
		}
		block := params.blocks[name]
		if err := block.ref(c); err != nil {
			return fmt.Errorf("pass %q: block %q: %s: %w", p.label, name, err, core.ErrResourceCompile)
		}
		p.blockRefs = append(p.blockRefs, block)
		p.blocks = append(p.blocks, blockBinding{
			name:  name,
			index: index,
			block: block,
		})
	}

	if err := p.compileAttributes(c, params.attributes, 0); err != nil {
		return err
	}
	return p.compileAttributes(c, params.instanceAttributes, 1)
}

func (p *Pass) compileAttributes(c *Context, attributes map[string]*Buffer, divisor int) error {
	pid := p.program.ID()
	for _, name := range sortedKeys(attributes) {
		location, ok := c.GPU.AttributeLocation(pid, name)
		if !ok {
			return fmt.Errorf("pass %q: attribute %q has no matching program input: %w",
				p.label, name, core.ErrResourceCompile)
		}
		buffer := attributes[name]
		if err := buffer.Ref(c); err != nil {
			return fmt.Errorf("pass %q: attribute %q: %s: %w", p.label, name, err, core.ErrResourceCompile)
		}
		p.bufferRefs = append(p.bufferRefs, buffer)
		p.attributes = append(p.attributes, attributeBinding{
			name:     name,
			location: location,
			buffer:   buffer,
			divisor:  divisor,
		})
	}
	return nil
}

// update refreshes time-dependent resource contents.
func (p *Pass) update(c *Context, t float64) error {
	for _, b := range p.uniforms {
		if err := b.uniform.Update(c, t); err != nil {
			return err
		}
	}
	for _, b := range p.textures {
		if err := b.texture.Update(c, t); err != nil {
			return err
		}
	}
	return nil
}

// bind activates the program and every resource binding for the next draw.
func (p *Pass) bind(c *Context) error {
	g := c.GPU
	pid := p.program.ID()
	g.UseProgram(pid)
	for _, b := range p.textures {
		g.BindTexture(b.unit, b.texture.ID())
		if err := g.SetUniformInt(pid, b.location, b.unit); err != nil {
			return fmt.Errorf("pass %q: sampler %q: %s: %w", p.label, b.name, err, core.ErrBind)
		}
	}
	for _, b := range p.uniforms {
		if err := b.uniform.apply(c, pid, b.location); err != nil {
			return fmt.Errorf("pass %q: uniform %q: %s: %w", p.label, b.name, err, core.ErrBind)
		}
	}
	for _, b := range p.blocks {
		g.BindUniformBlock(b.index, b.block.id)
	}
	for _, b := range p.attributes {
		if b.buffer.Format == gpu.FormatMat4 {
			// A mat4 attribute spans four consecutive vec4 locations.
			for i := 0; i < 4; i++ {
				g.BindAttribute(b.location+i, b.buffer.ID(), 4, gpu.ElementTypeFloat, b.divisor)
			}
			continue
		}
		g.BindAttribute(b.location, b.buffer.ID(), b.buffer.Format.Components(), b.buffer.Format.ElementType(), b.divisor)
	}
	return nil
}

// unbind restores the context state after a draw.
func (p *Pass) unbind(c *Context) {
	g := c.GPU
	for _, b := range p.attributes {
		g.DisableAttribute(b.location)
		if b.buffer.Format == gpu.FormatMat4 {
			for i := 1; i < 4; i++ {
				g.DisableAttribute(b.location + i)
			}
		}
	}
	g.UseProgram(0)
}

// destroy releases every claim the pass acquired. Idempotent.
func (p *Pass) destroy(c *Context) {
	for _, b := range p.bufferRefs {
		b.Unref(c)
	}
	p.bufferRefs = nil
	for _, b := range p.blockRefs {
		b.unref(c)
	}
	p.blockRefs = nil
	p.textures = nil
	p.uniforms = nil
	p.blocks = nil
	p.attributes = nil
}
