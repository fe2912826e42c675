package core

import (
	"errors"
)

// Rendering error taxonomy. Initialization-time errors abort node setup and
// propagate to the graph builder; the per-frame bind errors are logged by
// the render node and the frame proceeds best-effort.
var (
	// ErrUnsupportedCapability indicates that the GPU context lacks a
	// feature required by the node configuration, such as instanced draws.
	ErrUnsupportedCapability = errors.New("unsupported capability")
	// ErrAttributeCountMismatch indicates an attribute buffer whose element
	// count disagrees with the geometry vertex count or the instance count.
	ErrAttributeCountMismatch = errors.New("attribute count mismatch")
	// ErrBlockBackedIndices indicates a geometry index buffer that is backed
	// by a structured block, which is not a supported index source.
	ErrBlockBackedIndices = errors.New("block backed index buffer")
	// ErrResourceCompile indicates a pass compilation failure, typically a
	// declared resource with no matching program input.
	ErrResourceCompile = errors.New("resource compile failure")
	// ErrBind marks a per-frame pass activation failure.
	ErrBind = errors.New("pass bind failure")
)
