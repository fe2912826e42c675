package scene

import (
	"fmt"

	"github.com/nodal-gl/nodal/engine/gpu"
)

// Texture is a node describing a 2D texture made accessible to a program.
// Pixel upload mechanics live behind the GPU context.
type Texture struct {
	Label  string
	Width  int
	Height int
	Format gpu.Format
	Pixels []byte

	id          gpu.TextureID
	initialized bool
}

// NewTexture builds a texture node of the given dimensions.
func NewTexture(width, height int, format gpu.Format, pixels []byte) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Format: format,
		Pixels: pixels,
	}
}

func (t *Texture) Class() Class {
	return Class{
		Name: "Texture2D",
		Doc:  "2D texture sampled by a program",
		Params: []ParamDoc{
			{"width", "texture width in texels"},
			{"height", "texture height in texels"},
			{"format", "texel format"},
			{"pixels", "initial texel data"},
		},
	}
}

func (t *Texture) Init(c *Context) error {
	if t.initialized {
		return nil
	}
	t.Label = labelOr(t.Label, "texture")
	id, err := c.GPU.CreateTexture(t.Width, t.Height, t.Format, t.Pixels)
	if err != nil {
		return fmt.Errorf("texture %q creation: %w", t.Label, err)
	}
	t.id = id
	t.initialized = true
	return nil
}

func (t *Texture) Uninit(c *Context) {
	if !t.initialized {
		return
	}
	c.GPU.DeleteTexture(t.id)
	t.id = 0
	t.initialized = false
}

func (t *Texture) Update(c *Context, tm float64) error {
	return nil
}

func (t *Texture) Draw(c *Context) {}

// ID returns the device texture handle, zero before init.
func (t *Texture) ID() gpu.TextureID {
	return t.id
}
