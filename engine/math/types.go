package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/** @brief a 4x4 matrix, typically used to represent object transformations. */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

// NewMat4Identity returns the identity matrix.
func NewMat4Identity() Mat4 {
	var m Mat4
	m.Data[0] = 1.0
	m.Data[5] = 1.0
	m.Data[10] = 1.0
	m.Data[15] = 1.0
	return m
}

// Elements returns the vector as a flat float32 slice.
func (v Vec2) Elements() []float32 { return []float32{v.X, v.Y} }

func (v Vec3) Elements() []float32 { return []float32{v.X, v.Y, v.Z} }

func (v Vec4) Elements() []float32 { return []float32{v.X, v.Y, v.Z, v.W} }

func (q Quaternion) Elements() []float32 { return []float32{q.X, q.Y, q.Z, q.W} }

func (m Mat4) Elements() []float32 { return m.Data[:] }
