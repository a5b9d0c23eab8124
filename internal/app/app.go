// Package app wires the manager, the window and the model registry into the
// command surface served by httpapi.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"llamadesk/internal/common/fsutil"
	"llamadesk/internal/events"
	"llamadesk/internal/manager"
	"llamadesk/internal/shell"
	"llamadesk/pkg/types"
)

// ModelLister lists the model files offered by the model picker.
type ModelLister interface {
	Models() []types.Model
}

// App implements httpapi.Service.
type App struct {
	mgr    *manager.Manager
	broker *events.Broker
	window shell.Window
	models ModelLister
	log    zerolog.Logger
}

// Options configures New. Nil fields get working defaults.
type Options struct {
	Manager *manager.Manager
	Broker  *events.Broker
	Window  shell.Window
	Models  ModelLister
	Logger  zerolog.Logger
}

// New composes an App and routes manager events into the broker.
func New(opts Options) *App {
	a := &App{
		mgr:    opts.Manager,
		broker: opts.Broker,
		window: opts.Window,
		models: opts.Models,
		log:    opts.Logger.With().Str("component", "app").Logger(),
	}
	if a.broker == nil {
		a.broker = events.NewBroker(events.DefaultBufferSize)
	}
	if a.mgr == nil {
		a.mgr = manager.New(nil)
	}
	if a.window == nil {
		a.window = shell.NewHeadlessWindow(opts.Logger)
	}
	a.mgr.SetEventPublisher(a.broker)
	return a
}

// Manager exposes the underlying manager.
func (a *App) Manager() *manager.Manager { return a.mgr }

func (a *App) ShowWindow() error { return a.window.Show() }

func (a *App) RequestCancel() { a.mgr.RequestCancel() }

func (a *App) LoadModel(ctx context.Context, path string) error {
	return a.mgr.LoadModel(ctx, a.expand(path))
}

// StartLoad loads path in the background and logs the outcome.
func (a *App) StartLoad(path string) string {
	path = a.expand(path)
	return a.mgr.StartLoad(path, func(err error) {
		if err != nil {
			a.log.Warn().Err(err).Str("path", path).Msg("background load failed")
			return
		}
		a.log.Info().Str("path", path).Msg("background load finished")
	})
}

// expand resolves a leading '~' in paths typed by the user.
func (a *App) expand(path string) string {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		a.log.Warn().Err(err).Str("path", path).Msg("cannot expand home directory")
		return path
	}
	return p
}

func (a *App) RunInference(ctx context.Context, prompt string, params types.InferenceParameters) error {
	return a.mgr.RunInference(ctx, prompt, params)
}

func (a *App) ListModels() []types.Model {
	if a.models == nil {
		return nil
	}
	return a.models.Models()
}

func (a *App) Status() types.StatusResponse {
	st := a.mgr.Status()
	st.WindowVisible = a.window.Visible()
	return st
}

func (a *App) Ready() bool { return a.mgr.Ready() }

func (a *App) Subscribe() (<-chan manager.Event, func()) { return a.broker.Subscribe() }

// Close stops the event stream and releases the model.
func (a *App) Close() error {
	a.broker.Close()
	return a.mgr.Close()
}
