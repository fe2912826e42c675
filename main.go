/*
Headless demo application exercising the engine package: builds the testbed
scene and runs it through the frame loop.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nodal-gl/nodal/engine"
	"github.com/nodal-gl/nodal/engine/gpu"
	"github.com/nodal-gl/nodal/testbed"
)

func main() {
	cfg := engine.DefaultConfig()
	if len(os.Args) > 1 {
		loaded, err := engine.LoadConfig(os.Args[1])
		if err != nil {
			panic(err)
		}
		cfg = loaded

		watcher, err := engine.WatchConfig(os.Args[1], nil)
		if err != nil {
			panic(err)
		}
		defer watcher.Close()
	}

	game, err := testbed.New(cfg)
	if err != nil {
		panic(err)
	}

	eng, err := engine.New(cfg, gpu.NewHeadless(cfg.Features()), game.Root)
	if err != nil {
		panic(err)
	}

	if err := eng.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		<-sigCh
		eng.Stop()
	}()

	if err := eng.Run(); err != nil {
		panic(err)
	}
}
