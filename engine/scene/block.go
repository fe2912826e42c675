package scene

import (
	"fmt"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
)

// Block is a structured memory block exposed to programs as a uniform
// block. Buffers may view sub-ranges of a block instead of owning storage.
type Block struct {
	Label string
	/** @brief The raw block contents. */
	Data []byte

	id          gpu.BufferID
	refs        int
	initialized bool
}

func (b *Block) Class() Class {
	return Class{
		Name: "Block",
		Doc:  "structured memory block bindable as a program uniform block",
		Params: []ParamDoc{
			{"data", "raw block contents"},
		},
	}
}

func (b *Block) Init(c *Context) error {
	if b.initialized {
		return nil
	}
	if len(b.Data) == 0 {
		return fmt.Errorf("block %q is empty", b.Label)
	}
	b.initialized = true
	return nil
}

func (b *Block) Uninit(c *Context) {
	if b.refs != 0 {
		core.LogWarn("block %q released with %d live references", b.Label, b.refs)
	}
	b.initialized = false
}

func (b *Block) Update(c *Context, t float64) error {
	return nil
}

func (b *Block) Draw(c *Context) {}

// BufferView returns a buffer backed by this block. The buffer owns no
// storage; its device handle is the block's.
func (b *Block) BufferView(format gpu.Format, count int) *Buffer {
	return &Buffer{
		Label:  b.Label + "-view",
		Count:  count,
		Format: format,
		Block:  b,
	}
}

func (b *Block) ref(c *Context) error {
	if b.refs == 0 {
		id, err := c.GPU.CreateBuffer(b.Data)
		if err != nil {
			return fmt.Errorf("block %q device allocation: %w", b.Label, err)
		}
		b.id = id
	}
	b.refs++
	return nil
}

func (b *Block) unref(c *Context) {
	if b.refs == 0 {
		core.LogError("block %q unreferenced more times than referenced", b.Label)
		return
	}
	b.refs--
	if b.refs == 0 {
		c.GPU.DeleteBuffer(b.id)
		b.id = 0
	}
}
