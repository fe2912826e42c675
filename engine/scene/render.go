package scene

import (
	"fmt"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
)

// Reserved attribute names the geometry-intrinsic buffers resolve under.
// A user attribute declared under one of these keys is silently replaced.
const (
	AttributePosition = "ngl_position"
	AttributeUVCoord  = "ngl_uvcoord"
	AttributeNormal   = "ngl_normal"
)

// drawMode is the draw strategy of a render node, selected exactly once at
// init from (indices present, instanced) and never changed afterwards.
type drawMode uint8

const (
	drawModeArrays drawMode = iota
	drawModeArraysInstanced
	drawModeElements
	drawModeElementsInstanced
)

// RenderConfig is the declared parameter set of a render node, populated by
// the graph builder before init.
type RenderConfig struct {
	Label string
	/** @brief The geometry to rasterize. Required. */
	Geometry GeometryProvider
	/** @brief The program to execute. Defaulted when nil. */
	Program *Program
	/** @brief Textures made accessible to the program. */
	Textures map[string]*Texture
	/** @brief Uniforms made accessible to the program. */
	Uniforms map[string]Uniform
	/** @brief Blocks made accessible to the program. */
	Blocks map[string]*Block
	/** @brief Extra per-vertex attributes made accessible to the program. */
	Attributes map[string]*Buffer
	/** @brief Per-instance attributes made accessible to the program. */
	InstanceAttributes map[string]*Buffer
	/** @brief Number of instances to draw. Zero draws non-instanced. */
	Instances int
}

// Render combines a geometry, a program and its resources into draw calls.
type Render struct {
	label              string
	geometry           GeometryProvider
	program            *Program
	textures           map[string]*Texture
	uniforms           map[string]Uniform
	blocks             map[string]*Block
	attributes         map[string]*Buffer
	instanceAttributes map[string]*Buffer
	instances          int

	resolvedAttributes map[string]*Buffer
	pass               *Pass
	ownsIndexRef       bool
	indexType          gpu.ElementType
	mode               drawMode
	initialized        bool
}

// NewRender builds a render node from its configuration. The geometry is
// set once here and immutable afterwards.
func NewRender(cfg RenderConfig) (*Render, error) {
	if cfg.Geometry == nil {
		return nil, fmt.Errorf("render node requires a geometry")
	}
	if cfg.Instances < 0 {
		return nil, fmt.Errorf("render node instance count must not be negative, got %d", cfg.Instances)
	}
	return &Render{
		label:              labelOr(cfg.Label, "render"),
		geometry:           cfg.Geometry,
		program:            cfg.Program,
		textures:           cfg.Textures,
		uniforms:           cfg.Uniforms,
		blocks:             cfg.Blocks,
		attributes:         cfg.Attributes,
		instanceAttributes: cfg.InstanceAttributes,
		instances:          cfg.Instances,
	}, nil
}

func (r *Render) Class() Class {
	return Class{
		Name: "Render",
		Doc:  "combines a geometry, a program and resources into draw calls",
		Params: []ParamDoc{
			{"geometry", "geometry to rasterize"},
			{"program", "program executed for every draw"},
			{"textures", "textures made accessible to the program"},
			{"uniforms", "uniforms made accessible to the program"},
			{"blocks", "blocks made accessible to the program"},
			{"attributes", "extra per-vertex attributes"},
			{"instance_attributes", "per-instance attributes"},
			{"nb_instances", "number of instances to draw"},
		},
	}
}

// Init validates capabilities and attribute counts, then compiles the pass
// and selects the draw strategy. Any failure aborts initialization; Uninit
// stays safe to call regardless of how far init got.
func (r *Render) Init(c *Context) error {
	if r.initialized {
		return nil
	}
	features := c.GPU.Features()

	// Instancing checks
	if r.instances > 0 && features&gpu.FeatureDrawInstanced == 0 {
		core.LogError("render %q: context does not support instanced draws", r.label)
		return fmt.Errorf("render %q: instanced draws: %w", r.label, core.ErrUnsupportedCapability)
	}
	if len(r.instanceAttributes) > 0 && features&gpu.FeatureInstancedArray == 0 {
		core.LogError("render %q: context does not support instanced arrays", r.label)
		return fmt.Errorf("render %q: instanced arrays: %w", r.label, core.ErrUnsupportedCapability)
	}

	if err := r.geometry.Init(c); err != nil {
		return err
	}

	if err := r.checkAttributes(r.attributes, false); err != nil {
		return err
	}
	if err := r.checkAttributes(r.instanceAttributes, true); err != nil {
		return err
	}

	if r.program == nil {
		program := NewDefaultProgram()
		if err := c.Attach(program); err != nil {
			return err
		}
		r.program = program
	} else if err := r.program.Init(c); err != nil {
		return err
	}

	geometry := r.geometry.Geometry()
	if geometry.Indices != nil {
		if err := geometry.Indices.Ref(c); err != nil {
			return err
		}
		r.ownsIndexRef = true

		if geometry.Indices.Block != nil {
			core.LogError("render %q: geometry index buffers referencing a block are not supported", r.label)
			return fmt.Errorf("render %q: %w", r.label, core.ErrBlockBackedIndices)
		}
		r.indexType = geometry.Indices.Format.ElementType()
	}

	r.resolveAttributes()

	pass, err := newPass(c, passParams{
		label:              r.label,
		program:            r.program,
		textures:           r.textures,
		uniforms:           r.uniforms,
		blocks:             r.blocks,
		attributes:         r.resolvedAttributes,
		instanceAttributes: r.instanceAttributes,
	})
	if err != nil {
		return err
	}
	r.pass = pass

	if geometry.Indices != nil {
		if r.instances > 0 {
			r.mode = drawModeElementsInstanced
		} else {
			r.mode = drawModeElements
		}
	} else {
		if r.instances > 0 {
			r.mode = drawModeArraysInstanced
		} else {
			r.mode = drawModeArrays
		}
	}
	r.initialized = true
	return nil
}

// Uninit releases the resolved attributes, the pass and, when held, the
// index buffer claim. Safe to call after a failed or partial Init.
func (r *Render) Uninit(c *Context) {
	r.resolvedAttributes = nil

	if r.pass != nil {
		r.pass.destroy(c)
		r.pass = nil
	}

	if r.ownsIndexRef {
		r.geometry.Geometry().Indices.Unref(c)
		r.ownsIndexRef = false
	}
	r.initialized = false
}

// Update forwards the frame time to the geometry, then to the pass.
func (r *Render) Update(c *Context, t float64) error {
	if err := r.geometry.Update(c, t); err != nil {
		return err
	}
	return r.pass.update(c, t)
}

// Draw binds the pass, issues the selected draw command and unbinds. Bind
// failures are logged and the frame proceeds best-effort.
func (r *Render) Draw(c *Context) {
	if err := r.pass.bind(c); err != nil {
		core.LogError("render %q: pass upload data error: %s", r.label, err)
	}

	r.drawCall(c)

	r.pass.unbind(c)
}

func (r *Render) drawCall(c *Context) {
	g := c.GPU
	geometry := r.geometry.Geometry()
	primitive := gpu.PrimitiveFor(geometry.Topology)
	switch r.mode {
	case drawModeElements:
		g.BindIndexBuffer(geometry.Indices.ID())
		g.DrawElements(primitive, geometry.Indices.Count, r.indexType)
	case drawModeElementsInstanced:
		g.BindIndexBuffer(geometry.Indices.ID())
		g.DrawElementsInstanced(primitive, geometry.Indices.Count, r.indexType, r.instances)
	case drawModeArrays:
		g.DrawArrays(primitive, 0, geometry.Vertices.Count)
	case drawModeArraysInstanced:
		g.DrawArraysInstanced(primitive, 0, geometry.Vertices.Count, r.instances)
	}
}

// checkAttributes verifies that every attribute buffer count matches the
// geometry vertex count, or the instance count for per-instance buffers.
func (r *Render) checkAttributes(attributes map[string]*Buffer, perInstance bool) error {
	for name, buffer := range attributes {
		if perInstance {
			if buffer.Count != r.instances {
				core.LogError("attribute buffer %s count (%d) does not match instance count (%d)",
					name, buffer.Count, r.instances)
				return fmt.Errorf("attribute buffer %s count (%d) does not match instance count (%d): %w",
					name, buffer.Count, r.instances, core.ErrAttributeCountMismatch)
			}
		} else {
			vertices := r.geometry.Geometry().Vertices
			if buffer.Count != vertices.Count {
				core.LogError("attribute buffer %s count (%d) does not match vertices count (%d)",
					name, buffer.Count, vertices.Count)
				return fmt.Errorf("attribute buffer %s count (%d) does not match vertices count (%d): %w",
					name, buffer.Count, vertices.Count, core.ErrAttributeCountMismatch)
			}
		}
	}
	return nil
}

// resolveAttributes merges the explicit attributes with the
// geometry-intrinsic buffers. Explicit entries go in first; intrinsic
// buffers follow under their reserved keys and take precedence.
func (r *Render) resolveAttributes() {
	resolved := make(map[string]*Buffer, len(r.attributes)+3)
	for name, buffer := range r.attributes {
		resolved[name] = buffer
	}
	geometry := r.geometry.Geometry()
	intrinsics := []struct {
		name   string
		buffer *Buffer
	}{
		{AttributePosition, geometry.Vertices},
		{AttributeUVCoord, geometry.UVCoords},
		{AttributeNormal, geometry.Normals},
	}
	for _, intrinsic := range intrinsics {
		if intrinsic.buffer == nil {
			continue
		}
		resolved[intrinsic.name] = intrinsic.buffer
	}
	r.resolvedAttributes = resolved
}
