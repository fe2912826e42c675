package gpu

/** @brief The primitive topology a geometry is assembled with. */
type Topology int

const (
	TopologyPoints Topology = iota
	TopologyLines
	TopologyLineStrip
	TopologyTriangles
	TopologyTriangleStrip
	TopologyTriangleFan
)

/** @brief The device primitive kind of a draw command. */
type Primitive int

const (
	PrimitivePoints Primitive = iota
	PrimitiveLines
	PrimitiveLineStrip
	PrimitiveTriangles
	PrimitiveTriangleStrip
	PrimitiveTriangleFan
)

var topologyPrimitives = map[Topology]Primitive{
	TopologyPoints:        PrimitivePoints,
	TopologyLines:         PrimitiveLines,
	TopologyLineStrip:     PrimitiveLineStrip,
	TopologyTriangles:     PrimitiveTriangles,
	TopologyTriangleStrip: PrimitiveTriangleStrip,
	TopologyTriangleFan:   PrimitiveTriangleFan,
}

// PrimitiveFor maps a geometry topology to the draw primitive issued for it.
// Pure lookup, resolved at draw time.
func PrimitiveFor(t Topology) Primitive {
	return topologyPrimitives[t]
}

func (t Topology) String() string {
	switch t {
	case TopologyPoints:
		return "points"
	case TopologyLines:
		return "lines"
	case TopologyLineStrip:
		return "line_strip"
	case TopologyTriangles:
		return "triangles"
	case TopologyTriangleStrip:
		return "triangle_strip"
	case TopologyTriangleFan:
		return "triangle_fan"
	}
	return "unknown"
}
