package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
	"github.com/nodal-gl/nodal/engine/scene"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	StageUninitialized Stage = iota
	// Engine is currently initializing
	StageInitializing
	// Engine initialization is complete
	StageInitialized
	// Engine is currently running
	StageRunning
	// Engine is in the process of shutting down
	StageShuttingDown
)

// Engine drives a scene graph through the per-frame lifecycle: the root is
// initialized once, updated before every draw, and uninitialized exactly
// once at shutdown. Everything runs on the goroutine calling Run.
type Engine struct {
	currentStage Stage
	config       *Config
	graph        *scene.Context
	root         scene.Node
	clock        *core.Clock
	metrics      *core.Metrics
	frame        uint64
	stopped      atomic.Bool
}

// New assembles an engine around a GPU context and the scene graph root.
func New(cfg *Config, device gpu.Context, root scene.Node) (*Engine, error) {
	if root == nil {
		return nil, fmt.Errorf("engine requires a root node")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{
		currentStage: StageUninitialized,
		config:       cfg,
		graph:        scene.NewContext(device),
		root:         root,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}, nil
}

// Graph exposes the rendering context the scene graph lives in.
func (e *Engine) Graph() *scene.Context {
	return e.graph
}

// Initialize prepares the scene graph root for the frame loop.
func (e *Engine) Initialize() error {
	if e.currentStage != StageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = StageInitializing

	if err := e.root.Init(e.graph); err != nil {
		core.LogError("root node initialization failed: %s", err)
		// The failed root may hold partial resources; release what it and
		// the graph acquired before reporting.
		e.root.Uninit(e.graph)
		e.graph.Release()
		e.currentStage = StageUninitialized
		return err
	}

	e.currentStage = StageInitialized
	core.LogInfo("%s initialized", e.config.Name)
	return nil
}

// Run executes the frame loop until Stop, a configured frame cap, or a
// failed update. Update always precedes Draw within a frame.
func (e *Engine) Run() error {
	if e.currentStage != StageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = StageRunning
	e.clock.Start()

	last := 0.0
	for !e.stopped.Load() {
		e.clock.Update()
		t := e.clock.Elapsed()

		if err := e.root.Update(e.graph, t); err != nil {
			core.LogError("frame %d update failed: %s", e.frame, err)
			e.Shutdown()
			return err
		}
		e.root.Draw(e.graph)

		e.metrics.Update(t - last)
		last = t
		e.frame++
		if e.config.MaxFrames > 0 && e.frame >= e.config.MaxFrames {
			break
		}
	}

	fps, frameTime := e.metrics.Frame()
	core.LogInfo("stopping after %d frames (%.1f fps, %.2f ms avg)", e.frame, fps, frameTime)
	e.Shutdown()
	return nil
}

// Stop requests the frame loop to end after the current frame. Safe to call
// from another goroutine, such as a signal handler.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// Shutdown tears the graph down: the root first, then every node the
// context owns, then the device. Idempotent.
func (e *Engine) Shutdown() {
	if e.currentStage == StageShuttingDown || e.currentStage == StageUninitialized {
		return
	}
	e.currentStage = StageShuttingDown
	e.clock.Stop()

	e.root.Uninit(e.graph)
	e.graph.Release()
	e.graph.GPU.Release()
	e.currentStage = StageUninitialized
}

// Frame reports the number of completed frames.
func (e *Engine) Frame() uint64 {
	return e.frame
}
