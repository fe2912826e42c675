package gpu

/** @brief The data format of a buffer element. */
type Format int

const (
	FormatUndefined Format = iota
	/** @brief Single unsigned 8-bit integer. */
	FormatR8UInt
	/** @brief Single unsigned 16-bit integer. */
	FormatR16UInt
	/** @brief Single unsigned 32-bit integer. */
	FormatR32UInt
	/** @brief Single 32-bit float. */
	FormatR32Float
	/** @brief Two 32-bit floats. */
	FormatRG32Float
	/** @brief Three 32-bit floats. */
	FormatRGB32Float
	/** @brief Four 32-bit floats. */
	FormatRGBA32Float
	/** @brief Four bytes, normalized, typically image pixels. */
	FormatRGBA8Unorm
	/** @brief Sixteen 32-bit floats forming a 4x4 matrix. */
	FormatMat4
)

/** @brief The device-side scalar type of a buffer element component. */
type ElementType int

const (
	ElementTypeNone ElementType = iota
	ElementTypeUnsignedByte
	ElementTypeUnsignedShort
	ElementTypeUnsignedInt
	ElementTypeFloat
)

var formatDescs = map[Format]struct {
	components  int
	size        int
	elementType ElementType
	name        string
}{
	FormatR8UInt:      {1, 1, ElementTypeUnsignedByte, "r8_uint"},
	FormatR16UInt:     {1, 2, ElementTypeUnsignedShort, "r16_uint"},
	FormatR32UInt:     {1, 4, ElementTypeUnsignedInt, "r32_uint"},
	FormatR32Float:    {1, 4, ElementTypeFloat, "r32_float"},
	FormatRG32Float:   {2, 8, ElementTypeFloat, "rg32_float"},
	FormatRGB32Float:  {3, 12, ElementTypeFloat, "rgb32_float"},
	FormatRGBA32Float: {4, 16, ElementTypeFloat, "rgba32_float"},
	FormatRGBA8Unorm:  {4, 4, ElementTypeUnsignedByte, "rgba8_unorm"},
	FormatMat4:        {16, 64, ElementTypeFloat, "mat4"},
}

// Components returns the number of scalar components per element.
func (f Format) Components() int {
	return formatDescs[f].components
}

// Size returns the byte size of one element.
func (f Format) Size() int {
	return formatDescs[f].size
}

// ElementType returns the device scalar type the format maps to, used to
// derive the index element type of an indexed draw.
func (f Format) ElementType() ElementType {
	return formatDescs[f].elementType
}

func (f Format) String() string {
	if d, ok := formatDescs[f]; ok {
		return d.name
	}
	return "undefined"
}
