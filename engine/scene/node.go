package scene

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
)

// Node is a typed vertex of the scene graph. Lifecycle calls run on the
// owning context's thread in strict per-frame order: Init completes before
// any Update, Update precedes Draw within a frame, and nothing is called
// after Uninit.
type Node interface {
	// Init validates the node configuration and compiles its device
	// resources. A failed Init leaves the node safely destructible.
	Init(c *Context) error
	// Uninit releases everything Init compiled. Runs exactly once.
	Uninit(c *Context)
	// Update propagates the frame time to the node and its children.
	Update(c *Context, t float64) error
	// Draw issues the node's draw commands against the device.
	Draw(c *Context)
}

// ParamDoc documents one declared parameter of a node kind.
type ParamDoc struct {
	Name string
	Doc  string
}

// Class is the static descriptor of a node kind.
type Class struct {
	Name   string
	Doc    string
	Params []ParamDoc
}

// Classer is implemented by nodes that publish a class descriptor.
type Classer interface {
	Class() Class
}

// Context is the rendering context a scene graph lives in. It owns the GPU
// context and any node the graph created internally, such as defaulted
// programs. Single-threaded; all lifecycle calls go through one goroutine.
type Context struct {
	GPU gpu.Context

	owned []Node
}

// NewContext wraps a GPU context for scene graph use.
func NewContext(g gpu.Context) *Context {
	return &Context{GPU: g}
}

// Attach initializes a node the context takes ownership of. Owned nodes are
// uninitialized when the context is released, in reverse attach order.
func (c *Context) Attach(n Node) error {
	if err := n.Init(c); err != nil {
		return err
	}
	c.owned = append(c.owned, n)
	return nil
}

// Release uninitializes every owned node. The caller remains responsible
// for nodes it initialized itself.
func (c *Context) Release() {
	for i := len(c.owned) - 1; i >= 0; i-- {
		c.owned[i].Uninit(c)
	}
	c.owned = nil
}

// newLabel generates a unique label for an unlabeled node.
func newLabel(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

// labelOr returns label, or a generated one when it is empty.
func labelOr(label, prefix string) string {
	if label != "" {
		return label
	}
	l := newLabel(prefix)
	core.LogDebug("unlabeled %s node, using %s", prefix, l)
	return l
}
