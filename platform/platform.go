// Package platform owns the GLFW window and pumps its events into the app.
package platform

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/plus3/cubeview/config"
	"github.com/plus3/cubeview/input"
	"go.uber.org/zap"
)

func init() {
	// GLFW must be driven from the main thread.
	runtime.LockOSThread()
}

// Keymap maps GLFW keys onto movement keys.
var Keymap = input.Keymap{
	int(glfw.KeyW): input.KeyW,
	int(glfw.KeyA): input.KeyA,
	int(glfw.KeyS): input.KeyS,
	int(glfw.KeyD): input.KeyD,
}

// Host is what the window loop drives.
type Host interface {
	Frame() error
	OnKey(ev input.KeyboardEvent)
	OnResize(width, height uint32) error
	OnClose()
	ShouldExit() bool
}

type Window struct {
	window *glfw.Window
	logger *zap.Logger
}

// NewWindow initializes GLFW and opens a window without a client API, ready
// for a WebGPU surface.
func NewWindow(cfg config.Window, logger *zap.Logger) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("platform: init glfw: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	var monitor *glfw.Monitor
	if cfg.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}
	win, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("platform: create window: %w", err)
	}
	if cfg.CursorGrab {
		win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	}
	return &Window{window: win, logger: logger.Named("platform")}, nil
}

// SurfaceDescriptor describes the window to wgpu.
func (w *Window) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w.window)
}

// Size is the framebuffer size in pixels.
func (w *Window) Size() (uint32, uint32) {
	width, height := w.window.GetFramebufferSize()
	return uint32(max(width, 0)), uint32(max(height, 0))
}

// Run installs the callbacks and renders until the window closes, Escape is
// pressed or a frame fails.
func (w *Window) Run(host Host) error {
	var callbackErr error

	w.window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			host.OnClose()
			return
		}
		host.OnKey(Keymap.Translate(rawKeyEvent(key, scancode, action)))
	})
	resize := func() {
		if err := host.OnResize(w.Size()); err != nil {
			callbackErr = err
		}
	}
	w.window.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) { resize() })
	w.window.SetContentScaleCallback(func(_ *glfw.Window, _, _ float32) { resize() })
	w.window.SetCloseCallback(func(_ *glfw.Window) { host.OnClose() })

	for !host.ShouldExit() {
		glfw.PollEvents()
		if callbackErr != nil {
			return callbackErr
		}
		if host.ShouldExit() {
			break
		}
		if err := host.Frame(); err != nil {
			return err
		}
	}
	w.logger.Info("window closed")
	return nil
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	if w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
}

func rawKeyEvent(key glfw.Key, scancode int, action glfw.Action) input.RawKeyEvent {
	raw := input.RawKeyEvent{
		ScanCode: scancode,
		Key:      int(key),
		HasKey:   key != glfw.KeyUnknown,
	}
	switch action {
	case glfw.Release:
		raw.Action = input.ActionRelease
	case glfw.Repeat:
		raw.Action = input.ActionRepeat
	default:
		raw.Action = input.ActionPress
	}
	return raw
}
