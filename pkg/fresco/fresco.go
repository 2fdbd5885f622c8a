// Package fresco is the application entry point. It wires configuration,
// backend, scheduler, and renderer binding into a shared set of bindings
// and exposes RunApp for the common case. The core packages never reach
// for these globals; everything here can also be assembled by hand.
package fresco

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-fresco/fresco/pkg/config"
	"github.com/go-fresco/fresco/pkg/core"
	"github.com/go-fresco/fresco/pkg/engine"
	"github.com/go-fresco/fresco/pkg/graphics"
	"github.com/go-fresco/fresco/pkg/layout"
	"github.com/go-fresco/fresco/pkg/platform"
	"github.com/go-fresco/fresco/pkg/scheduler"
)

// Options configures Init. Zero values select production defaults.
type Options struct {
	// Backend hosts the UI thread. Defaults to a platform.RunLoop at the
	// configured frame interval.
	Backend platform.Backend

	// Config overrides the resolved fresco.yaml. When nil, fresco.yaml is
	// loaded from the working directory.
	Config *config.Resolved

	// Surface receives rasterized frames. When nil, frames are painted but
	// not presented.
	Surface engine.Surface

	// Logger is the base logger for the engine. Defaults to zerolog.Nop.
	Logger *zerolog.Logger
}

var (
	mu       sync.Mutex
	binding  *engine.RendererBinding
	runLoop  *platform.RunLoop
	debugSrv *engine.DebugServer
)

// Init builds the shared bindings. Calling Init twice is an error; use the
// accessors afterwards.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if binding != nil {
		return fmt.Errorf("fresco: already initialized")
	}

	resolved := opts.Config
	if resolved == nil {
		loaded, err := config.Resolve(".")
		if err != nil {
			return err
		}
		resolved = loaded
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	backend := opts.Backend
	if backend == nil {
		runLoop = platform.NewRunLoop(resolved.FrameInterval)
		backend = runLoop
	}

	core.SetDebugMode(resolved.DebugMode)
	scheduler.DebugChecks = resolved.DebugMode
	layout.DebugChecks = resolved.DebugMode

	sched := scheduler.New(backend)
	if resolved.TimeDilation != 1 {
		sched.SetTimeDilation(resolved.TimeDilation)
	}

	owner := core.NewBuildOwner()
	binding = engine.NewRendererBinding(sched, owner)
	if opts.Surface != nil {
		binding.SetRasterizer(engine.NewRasterizer(opts.Surface, log))
	}

	if resolved.DebugPort > 0 {
		debugSrv = engine.NewDebugServer(binding, log)
		if _, err := debugSrv.Start(resolved.DebugPort); err != nil {
			binding = nil
			debugSrv = nil
			runLoop = nil
			return err
		}
	}

	return nil
}

// Renderer returns the shared renderer binding. Panics before Init.
func Renderer() *engine.RendererBinding {
	mu.Lock()
	defer mu.Unlock()
	if binding == nil {
		panic("fresco: not initialized, call fresco.Init first")
	}
	return binding
}

// Scheduler returns the shared frame scheduler. Panics before Init.
func Scheduler() *scheduler.FrameScheduler {
	return Renderer().Scheduler()
}

// RunApp mounts app under a view of the given size and runs the loop until
// Quit. It initializes with default options when Init has not been called.
// Blocks on the calling goroutine, which becomes the UI thread.
func RunApp(app core.Widget, viewSize graphics.Size) error {
	mu.Lock()
	initialized := binding != nil
	mu.Unlock()
	if !initialized {
		if err := Init(Options{}); err != nil {
			return err
		}
	}

	b := Renderer()
	view := layout.NewRenderView(layout.ViewConfiguration{
		Size:             viewSize,
		DevicePixelRatio: 1,
	})
	b.AttachView(view)
	root := core.MountRoot(b.BuildOwner(), view, app)
	b.SetRootElement(root)

	mu.Lock()
	loop := runLoop
	mu.Unlock()
	if loop == nil {
		return fmt.Errorf("fresco: RunApp requires the run loop backend")
	}
	loop.Run()
	return nil
}

// Quit stops the run loop and shuts down the debug server.
func Quit() {
	mu.Lock()
	loop := runLoop
	srv := debugSrv
	mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}
	if loop != nil {
		loop.Quit()
	}
}
