package gpu

import (
	"fmt"
	"strings"
)

/** @brief The kind of draw command a headless context recorded. */
type DrawKind int

const (
	DrawKindArrays DrawKind = iota
	DrawKindArraysInstanced
	DrawKindElements
	DrawKindElementsInstanced
)

// DrawCommand is one recorded draw call.
type DrawCommand struct {
	Kind        DrawKind
	Primitive   Primitive
	First       int
	Count       int
	Instances   int
	ElementType ElementType
	IndexBuffer BufferID
}

// AttribBinding is the last buffer attached to an attribute location.
type AttribBinding struct {
	Buffer      BufferID
	Components  int
	ElementType ElementType
	Divisor     int
}

type headlessProgram struct {
	attributes map[string]int
	uniforms   map[string]int
	blocks     map[string]int

	nextAttribute int
}

// Headless is a device-less Context. It allocates handles, keeps program
// input tables scanned from the shader sources, and records every draw
// command issued against it. It backs headless engine runs and the test
// suite.
type Headless struct {
	features Feature

	nextID   uint32
	buffers  map[BufferID][]byte
	textures map[TextureID]struct{}
	programs map[ProgramID]*headlessProgram

	activeProgram ProgramID
	boundIndex    BufferID
	attribs       map[int]AttribBinding
	boundBlocks   map[int]BufferID
	boundTextures map[int]TextureID
	uniformFloats map[int][]float32

	// Draws holds every draw command issued, in order.
	Draws []DrawCommand

	// FailUniforms, when non-nil, is returned by the uniform upload calls.
	// Fault injection for exercising the non-fatal bind failure path.
	FailUniforms error
}

// NewHeadless returns a headless context advertising the given features.
func NewHeadless(features Feature) *Headless {
	return &Headless{
		features:      features,
		buffers:       make(map[BufferID][]byte),
		textures:      make(map[TextureID]struct{}),
		programs:      make(map[ProgramID]*headlessProgram),
		attribs:       make(map[int]AttribBinding),
		boundBlocks:   make(map[int]BufferID),
		boundTextures: make(map[int]TextureID),
		uniformFloats: make(map[int][]float32),
	}
}

func (h *Headless) Features() Feature {
	return h.features
}

func (h *Headless) newID() uint32 {
	h.nextID++
	return h.nextID
}

func (h *Headless) CreateBuffer(data []byte) (BufferID, error) {
	id := BufferID(h.newID())
	h.buffers[id] = append([]byte(nil), data...)
	return id, nil
}

func (h *Headless) BufferData(id BufferID, data []byte) error {
	if _, ok := h.buffers[id]; !ok {
		return fmt.Errorf("unknown buffer %d", id)
	}
	h.buffers[id] = append([]byte(nil), data...)
	return nil
}

func (h *Headless) DeleteBuffer(id BufferID) {
	delete(h.buffers, id)
}

func (h *Headless) CreateTexture(width, height int, format Format, pixels []byte) (TextureID, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid texture dimensions %dx%d", width, height)
	}
	id := TextureID(h.newID())
	h.textures[id] = struct{}{}
	return id, nil
}

func (h *Headless) DeleteTexture(id TextureID) {
	delete(h.textures, id)
}

func (h *Headless) BindTexture(unit int, id TextureID) {
	h.boundTextures[unit] = id
}

func (h *Headless) CreateProgram(vertexSource, fragmentSource string) (ProgramID, error) {
	if vertexSource == "" || fragmentSource == "" {
		return 0, fmt.Errorf("empty shader source")
	}
	id := ProgramID(h.newID())
	h.programs[id] = scanProgram(vertexSource, fragmentSource)
	return id, nil
}

func (h *Headless) DeleteProgram(id ProgramID) {
	delete(h.programs, id)
}

func (h *Headless) UseProgram(id ProgramID) {
	h.activeProgram = id
}

func (h *Headless) AttributeLocation(id ProgramID, name string) (int, bool) {
	p, ok := h.programs[id]
	if !ok {
		return 0, false
	}
	loc, ok := p.attributes[name]
	return loc, ok
}

func (h *Headless) UniformLocation(id ProgramID, name string) (int, bool) {
	p, ok := h.programs[id]
	if !ok {
		return 0, false
	}
	loc, ok := p.uniforms[name]
	return loc, ok
}

func (h *Headless) UniformBlockIndex(id ProgramID, name string) (int, bool) {
	p, ok := h.programs[id]
	if !ok {
		return 0, false
	}
	idx, ok := p.blocks[name]
	return idx, ok
}

func (h *Headless) SetUniformFloats(id ProgramID, location int, values []float32) error {
	if h.FailUniforms != nil {
		return h.FailUniforms
	}
	if _, ok := h.programs[id]; !ok {
		return fmt.Errorf("unknown program %d", id)
	}
	h.uniformFloats[location] = append([]float32(nil), values...)
	return nil
}

func (h *Headless) SetUniformInt(id ProgramID, location int, value int) error {
	if h.FailUniforms != nil {
		return h.FailUniforms
	}
	if _, ok := h.programs[id]; !ok {
		return fmt.Errorf("unknown program %d", id)
	}
	return nil
}

func (h *Headless) BindUniformBlock(index int, id BufferID) {
	h.boundBlocks[index] = id
}

func (h *Headless) BindAttribute(location int, id BufferID, components int, elementType ElementType, divisor int) {
	h.attribs[location] = AttribBinding{
		Buffer:      id,
		Components:  components,
		ElementType: elementType,
		Divisor:     divisor,
	}
}

func (h *Headless) DisableAttribute(location int) {
	delete(h.attribs, location)
}

func (h *Headless) BindIndexBuffer(id BufferID) {
	h.boundIndex = id
}

func (h *Headless) DrawArrays(primitive Primitive, first, count int) {
	h.Draws = append(h.Draws, DrawCommand{Kind: DrawKindArrays, Primitive: primitive, First: first, Count: count})
}

func (h *Headless) DrawArraysInstanced(primitive Primitive, first, count, instances int) {
	h.Draws = append(h.Draws, DrawCommand{Kind: DrawKindArraysInstanced, Primitive: primitive, First: first, Count: count, Instances: instances})
}

func (h *Headless) DrawElements(primitive Primitive, count int, elementType ElementType) {
	h.Draws = append(h.Draws, DrawCommand{Kind: DrawKindElements, Primitive: primitive, Count: count, ElementType: elementType, IndexBuffer: h.boundIndex})
}

func (h *Headless) DrawElementsInstanced(primitive Primitive, count int, elementType ElementType, instances int) {
	h.Draws = append(h.Draws, DrawCommand{Kind: DrawKindElementsInstanced, Primitive: primitive, Count: count, ElementType: elementType, Instances: instances, IndexBuffer: h.boundIndex})
}

func (h *Headless) Release() {
	h.buffers = make(map[BufferID][]byte)
	h.textures = make(map[TextureID]struct{})
	h.programs = make(map[ProgramID]*headlessProgram)
	h.attribs = make(map[int]AttribBinding)
	h.boundBlocks = make(map[int]BufferID)
	h.boundTextures = make(map[int]TextureID)
	h.uniformFloats = make(map[int][]float32)
	h.activeProgram = 0
	h.boundIndex = 0
}

// AliveBuffers reports the number of device buffers not yet deleted.
func (h *Headless) AliveBuffers() int {
	return len(h.buffers)
}

// AliveTextures reports the number of device textures not yet deleted.
func (h *Headless) AliveTextures() int {
	return len(h.textures)
}

// AlivePrograms reports the number of linked programs not yet deleted.
func (h *Headless) AlivePrograms() int {
	return len(h.programs)
}

// ActiveProgram reports the last program passed to UseProgram.
func (h *Headless) ActiveProgram() ProgramID {
	return h.activeProgram
}

// BlockBinding reports the buffer bound to a uniform block index.
func (h *Headless) BlockBinding(index int) (BufferID, bool) {
	id, ok := h.boundBlocks[index]
	return id, ok
}

// TextureBinding reports the texture bound to a unit.
func (h *Headless) TextureBinding(unit int) (TextureID, bool) {
	id, ok := h.boundTextures[unit]
	return id, ok
}

// AttributeBinding reports the buffer currently attached to a location.
func (h *Headless) AttributeBinding(location int) (AttribBinding, bool) {
	b, ok := h.attribs[location]
	return b, ok
}

// UniformFloats reports the last float values uploaded to a location.
func (h *Headless) UniformFloats(location int) ([]float32, bool) {
	v, ok := h.uniformFloats[location]
	return v, ok
}

// BufferContents returns the last data uploaded to a buffer.
func (h *Headless) BufferContents(id BufferID) ([]byte, bool) {
	b, ok := h.buffers[id]
	return b, ok
}

// scanProgram builds the program input tables from the shader sources.
// Attributes come from the vertex stage only; uniforms and blocks from both
// stages. The scanner understands one declaration per line, which is how
// every engine shader is written.
func scanProgram(vertexSource, fragmentSource string) *headlessProgram {
	p := &headlessProgram{
		attributes: make(map[string]int),
		uniforms:   make(map[string]int),
		blocks:     make(map[string]int),
	}
	scanSource(vertexSource, p, true)
	scanSource(fragmentSource, p, false)
	return p
}

func scanSource(src string, p *headlessProgram, vertexStage bool) {
	for _, line := range strings.Split(src, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		block := strings.HasSuffix(line, "{")
		line = strings.TrimSuffix(strings.TrimSuffix(line, "{"), ";")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "attribute", "in":
			if vertexStage && len(fields) >= 3 {
				if _, ok := p.attributes[fields[2]]; !ok {
					p.attributes[fields[2]] = p.nextAttribute
					// A mat4 input occupies four consecutive locations.
					if fields[1] == "mat4" {
						p.nextAttribute += 4
					} else {
						p.nextAttribute++
					}
				}
			}
		case "uniform":
			if block {
				if _, ok := p.blocks[fields[1]]; !ok {
					p.blocks[fields[1]] = len(p.blocks)
				}
			} else if len(fields) >= 3 {
				if _, ok := p.uniforms[fields[2]]; !ok {
					p.uniforms[fields[2]] = len(p.uniforms)
				}
			}
		}
	}
}
