package gpu

/** @brief Optional device capabilities advertised by a context. */
type Feature uint32

const (
	/** @brief The context supports instanced draw commands. */
	FeatureDrawInstanced Feature = 1 << iota
	/** @brief The context supports per-instance attribute arrays. */
	FeatureInstancedArray
	/** @brief The context supports uniform block bindings. */
	FeatureUniformBlock
)

// Opaque device-side handles. The zero value is never a valid handle.
type (
	BufferID  uint32
	TextureID uint32
	ProgramID uint32
)

// Context abstracts the GPU device the scene graph renders through. All
// calls happen on the rendering thread; no method blocks or retries.
type Context interface {
	// Features reports the capability bits of the device.
	Features() Feature

	CreateBuffer(data []byte) (BufferID, error)
	BufferData(id BufferID, data []byte) error
	DeleteBuffer(id BufferID)

	CreateTexture(width, height int, format Format, pixels []byte) (TextureID, error)
	DeleteTexture(id TextureID)
	BindTexture(unit int, id TextureID)

	CreateProgram(vertexSource, fragmentSource string) (ProgramID, error)
	DeleteProgram(id ProgramID)
	UseProgram(id ProgramID)

	// Program input introspection. The boolean reports whether the named
	// input exists in the linked program.
	AttributeLocation(id ProgramID, name string) (int, bool)
	UniformLocation(id ProgramID, name string) (int, bool)
	UniformBlockIndex(id ProgramID, name string) (int, bool)

	SetUniformFloats(id ProgramID, location int, values []float32) error
	SetUniformInt(id ProgramID, location int, value int) error
	BindUniformBlock(index int, id BufferID)

	// BindAttribute attaches a buffer to a vertex attribute location. A
	// divisor of zero advances per vertex, one advances per instance.
	BindAttribute(location int, id BufferID, components int, elementType ElementType, divisor int)
	DisableAttribute(location int)
	BindIndexBuffer(id BufferID)

	DrawArrays(primitive Primitive, first, count int)
	DrawArraysInstanced(primitive Primitive, first, count, instances int)
	DrawElements(primitive Primitive, count int, elementType ElementType)
	DrawElementsInstanced(primitive Primitive, count int, elementType ElementType, instances int)

	// Release frees every resource still alive on the context.
	Release()
}
