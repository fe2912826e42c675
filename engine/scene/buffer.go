package scene

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
)

// Buffer is a node holding a typed element array. The device-side buffer is
// shared: it is allocated when the first referrer acquires it and released
// when the last one lets go. A buffer may instead be backed by a structured
// Block, in which case it carries no storage of its own.
type Buffer struct {
	Label string
	/** @brief The number of elements in the buffer. */
	Count int
	/** @brief The data format of one element. */
	Format gpu.Format
	/** @brief The backing block, or nil for a standalone buffer. */
	Block *Block
	/** @brief The raw element data, laid out per Format. */
	Data []byte

	id          gpu.BufferID
	refs        int
	initialized bool
}

// NewBufferFloats packs float32 values into a buffer of the given format.
func NewBufferFloats(format gpu.Format, values []float32) *Buffer {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], stdmath.Float32bits(v))
	}
	return &Buffer{
		Count:  len(values) / format.Components(),
		Format: format,
		Data:   data,
	}
}

// NewBufferUint16 builds an index-style buffer of 16-bit values.
func NewBufferUint16(values []uint16) *Buffer {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	return &Buffer{
		Count:  len(values),
		Format: gpu.FormatR16UInt,
		Data:   data,
	}
}

// NewBufferUint32 builds an index-style buffer of 32-bit values.
func NewBufferUint32(values []uint32) *Buffer {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return &Buffer{
		Count:  len(values),
		Format: gpu.FormatR32UInt,
		Data:   data,
	}
}

func (b *Buffer) Class() Class {
	return Class{
		Name: "Buffer",
		Doc:  "typed element array usable as attribute, index or uniform source",
		Params: []ParamDoc{
			{"count", "number of elements"},
			{"format", "data format of one element"},
			{"block", "structured block providing the storage, if any"},
			{"data", "raw element data"},
		},
	}
}

func (b *Buffer) Init(c *Context) error {
	if b.initialized {
		return nil
	}
	if b.Count <= 0 {
		return fmt.Errorf("buffer %q has no elements", b.Label)
	}
	if b.Format == gpu.FormatUndefined {
		return fmt.Errorf("buffer %q has no data format", b.Label)
	}
	b.initialized = true
	return nil
}

func (b *Buffer) Uninit(c *Context) {
	if b.refs != 0 {
		core.LogWarn("buffer %q released with %d live references", b.Label, b.refs)
	}
	b.initialized = false
}

func (b *Buffer) Update(c *Context, t float64) error {
	return nil
}

func (b *Buffer) Draw(c *Context) {}

// Ref acquires a shared claim on the device buffer, allocating and
// uploading it on the first claim. Block-backed buffers forward the claim
// to their block.
func (b *Buffer) Ref(c *Context) error {
	if b.Block != nil {
		if err := b.Block.ref(c); err != nil {
			return err
		}
		b.refs++
		return nil
	}
	if b.refs == 0 {
		id, err := c.GPU.CreateBuffer(b.Data)
		if err != nil {
			return fmt.Errorf("buffer %q device allocation: %w", b.Label, err)
		}
		b.id = id
	}
	b.refs++
	return nil
}

// Unref releases one claim. The device buffer is freed when the last claim
// goes away; releasing below zero is reported and ignored.
func (b *Buffer) Unref(c *Context) {
	if b.refs == 0 {
		core.LogError("buffer %q unreferenced more times than referenced", b.Label)
		return
	}
	b.refs--
	if b.Block != nil {
		b.Block.unref(c)
		return
	}
	if b.refs == 0 {
		c.GPU.DeleteBuffer(b.id)
		b.id = 0
	}
}

// apply uploads the buffer contents to a uniform input, element by element
// as a flat float array. This makes a float-format buffer usable anywhere a
// value uniform is, feeding uniform arrays from buffer data.
func (b *Buffer) apply(c *Context, program gpu.ProgramID, location int) error {
	if b.Format.ElementType() != gpu.ElementTypeFloat {
		return fmt.Errorf("buffer %q format %s cannot feed a uniform input", b.Label, b.Format)
	}
	return c.GPU.SetUniformFloats(program, location, b.floats())
}

func (b *Buffer) floats() []float32 {
	values := make([]float32, len(b.Data)/4)
	for i := range values {
		values[i] = stdmath.Float32frombits(binary.LittleEndian.Uint32(b.Data[4*i:]))
	}
	return values
}

// RefCount reports the live shared claims on the buffer.
func (b *Buffer) RefCount() int {
	return b.refs
}

// ID returns the device buffer handle. Zero until the first Ref, or for
// block-backed buffers the backing block's handle.
func (b *Buffer) ID() gpu.BufferID {
	if b.Block != nil {
		return b.Block.id
	}
	return b.id
}
