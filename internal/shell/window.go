// Package shell holds the host-window abstraction. Rendering and event
// dispatch belong to the host application; the backend only asks for the
// main window to be shown once the front-end has painted.
package shell

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Window is the main application window.
type Window interface {
	// Show makes the window visible. Calling it on a visible window is a no-op.
	Show() error
	Visible() bool
}

// HeadlessWindow records visibility for hosts that manage the real window
// themselves (a webview polling /status, or a browser tab).
type HeadlessWindow struct {
	visible atomic.Bool
	log     zerolog.Logger
}

// NewHeadlessWindow returns a hidden window. The window starts hidden so the
// front-end can show it after its first paint.
func NewHeadlessWindow(l zerolog.Logger) *HeadlessWindow {
	return &HeadlessWindow{log: l.With().Str("component", "window").Logger()}
}

func (w *HeadlessWindow) Show() error {
	if w.visible.CompareAndSwap(false, true) {
		w.log.Info().Msg("main window shown")
	}
	return nil
}

func (w *HeadlessWindow) Visible() bool { return w.visible.Load() }
