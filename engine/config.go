package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/nodal-gl/nodal/engine/core"
	"github.com/nodal-gl/nodal/engine/gpu"
)

// RendererConfig selects the device capabilities a headless run advertises.
type RendererConfig struct {
	DrawInstanced   bool `toml:"draw_instanced"`
	InstancedArrays bool `toml:"instanced_arrays"`
	UniformBlocks   bool `toml:"uniform_blocks"`
}

// Config is the application configuration, loadable from a TOML file.
type Config struct {
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
	// MaxFrames stops the frame loop after that many frames. Zero runs
	// until shutdown.
	MaxFrames uint64         `toml:"max_frames"`
	Renderer  RendererConfig `toml:"renderer"`
}

// DefaultConfig returns a configuration with every capability enabled.
func DefaultConfig() *Config {
	return &Config{
		Name:      "nodal",
		LogLevel:  "info",
		MaxFrames: 300,
		Renderer: RendererConfig{
			DrawInstanced:   true,
			InstancedArrays: true,
			UniformBlocks:   true,
		},
	}
}

// LoadConfig reads a TOML configuration file and applies the log level.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	core.SetLogLevel(cfg.LogLevel)
	return cfg, nil
}

// Features maps the renderer configuration to device capability bits.
func (c *Config) Features() gpu.Feature {
	var f gpu.Feature
	if c.Renderer.DrawInstanced {
		f |= gpu.FeatureDrawInstanced
	}
	if c.Renderer.InstancedArrays {
		f |= gpu.FeatureInstancedArray
	}
	if c.Renderer.UniformBlocks {
		f |= gpu.FeatureUniformBlock
	}
	return f
}

// ConfigWatcher reloads a configuration file when it changes on disk.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchConfig watches path and invokes onChange with every successfully
// reloaded configuration. The log level is reapplied on each reload.
func WatchConfig(path string, onChange func(*Config)) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &ConfigWatcher{
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path || !event.Has(fsnotify.Write) {
					continue
				}
				cfg, err := LoadConfig(path)
				if err != nil {
					core.LogWarn("config reload failed: %s", err)
					continue
				}
				core.LogInfo("config %s reloaded", path)
				if onChange != nil {
					onChange(cfg)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				core.LogWarn("config watcher: %s", err)
			case <-w.done:
				return
			}
		}
	}()
	return w, nil
}

// Close stops watching.
func (w *ConfigWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
