// Package viewer is the raylib front end: it draws the current stipple while
// the session's driver iterates on a background goroutine.
package viewer

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/stipple/camera"
	"github.com/pthm-cable/stipple/renderer"
	"github.com/pthm-cable/stipple/session"
	"github.com/pthm-cable/stipple/ui"
)

// PanelWidth is the width of the left-side panel column.
const PanelWidth = 260

// Viewer holds the graphical state around a session.
type Viewer struct {
	session *session.Session

	cancel context.CancelFunc
	wait   func()

	camera   *camera.Camera
	stipple  *renderer.StippleRenderer
	fieldTex *renderer.FieldRenderer
	hud      *ui.HUD
	controls *ui.ControlsPanel

	// pending is the UI action from the last Draw, applied in Update.
	pending ui.ControlsAction
	// stopped records that the finished run has already been stopped.
	stopped bool
}

// New creates a viewer. Must be called after the raylib window is created.
func New(s *session.Session) *Viewer {
	cfg := s.Config()
	f := s.Field()

	v := &Viewer{
		session:  s,
		camera:   camera.New(PanelWidth, 0, cfg.Derived.ScreenW32-PanelWidth, cfg.Derived.ScreenH32, f.Width(), f.Height()),
		stipple:  renderer.NewStippleRenderer(float32(cfg.Screen.PointRadius)),
		fieldTex: renderer.NewFieldRenderer(),
		hud:      ui.NewHUD(10, 10, PanelWidth-20),
		controls: ui.NewControlsPanel(10, 230, PanelWidth-20, s.Sites()),
	}
	v.fieldTex.SetField(f)
	return v
}

// Start begins the first run and the background driver loop.
func (v *Viewer) Start(ctx context.Context) error {
	ctx, v.cancel = context.WithCancel(ctx)
	v.wait = v.session.Background(ctx)
	return v.restart(v.session.Sites())
}

func (v *Viewer) restart(n int) error {
	v.stopped = false
	v.controls.SetSites(n)
	if err := v.session.Start(n); err != nil {
		return err
	}
	slog.Info("restarted", "sites", n)
	return nil
}

// Update applies input and UI actions for the frame.
func (v *Viewer) Update() {
	v.handleInput()

	act := v.pending
	v.pending = ui.ControlsAction{}
	if act.Restart {
		if err := v.restart(act.Sites); err != nil {
			slog.Error("restart failed", "error", err)
		}
	}
	if act.Stop {
		v.session.Stop()
	}

	// A run that converged or reached its cap stops iterating.
	if !v.stopped && v.session.Finished() {
		v.session.Stop()
		v.stopped = true
	}

	v.session.RecordFrame()
}

// Unload stops the driver, finalizes output and frees resources.
func (v *Viewer) Unload() {
	if v.cancel != nil {
		v.cancel()
		v.wait()
	}
	if err := v.session.Finalize(); err != nil {
		slog.Error("failed to finalize output", "error", err)
	}
	v.fieldTex.Unload()
}
