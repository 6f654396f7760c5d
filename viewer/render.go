package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stipple/relax"
	"github.com/pthm-cable/stipple/ui"
)

var (
	backgroundColor = rl.Color{R: 30, G: 32, B: 36, A: 255}
	fallbackColor   = rl.Color{R: 220, G: 80, B: 60, A: 255}
)

// Draw renders the frame.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	f := v.session.Field()
	view := v.camera.Viewport()
	sites := v.session.Snapshot()

	v.stipple.DrawPaper(view, f.Width(), f.Height())
	if v.controls.ShowField {
		v.fieldTex.Draw(view, 90)
	}
	v.stipple.Draw(sites, view)

	d := v.session.Driver()
	exhausted := d.Exhausted()
	if v.controls.ShowStuck {
		v.stipple.DrawHighlight(sites, exhausted, view, fallbackColor)
	}

	last := v.session.Last()
	perf := v.session.PerfStats()
	v.hud.Draw(ui.HUDData{
		Title:      "Stipple",
		State:      d.State().String(),
		RunID:      d.RunID(),
		Iteration:  last.Iteration,
		Sites:      len(sites),
		Exhausted:  len(exhausted),
		Stranded:   last.Stranded,
		MaxDispSq:  last.MaxDispSq,
		Tolerance:  v.session.Config().Relax.Tolerance,
		IterPerSec: perf.IterationsPerSecond,
		FPS:        rl.GetFPS(),
	})
	v.pending = v.controls.Draw(d.State() == relax.Running)
	v.hud.DrawControls(int32(rl.GetScreenHeight()), "R restart | S stop | F field | wheel zoom | right drag pan | Home reset view")

	rl.EndDrawing()
}
