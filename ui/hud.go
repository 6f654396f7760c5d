package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the run HUD.
type HUDData struct {
	Title      string
	State      string
	RunID      string
	Iteration  int
	Sites      int
	Exhausted  int
	Stranded   int
	MaxDispSq  float64
	Tolerance  float64
	IterPerSec float64
	FPS        int32
}

// HUD renders the run heads-up display.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a new HUD at the given position.
func NewHUD(x, y, width int32) *HUD {
	return &HUD{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	padding := r.Theme.Padding

	panelHeight := r.Theme.LineHeight*9 + padding*2
	r.DrawPanel(h.x, h.y, h.width, panelHeight)

	x := h.x + padding
	y := h.y + padding
	rl.DrawText(data.Title, x, y, 18, rl.White)
	y += r.Theme.LineHeight + 6

	runID := data.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	y = r.DrawLabelValue(x, y, "State", data.State)
	y = r.DrawLabelValue(x, y, "Run", runID)
	y = r.DrawLabelValue(x, y, "Iteration", fmt.Sprintf("%d", data.Iteration))
	y = r.DrawLabelValue(x, y, "Sites", fmt.Sprintf("%d", data.Sites))
	y = r.DrawLabelValue(x, y, "Max disp²", fmt.Sprintf("%.3g", data.MaxDispSq))
	y = r.DrawLabelValue(x, y, "Iter/s", fmt.Sprintf("%.1f | FPS %d", data.IterPerSec, data.FPS))

	if data.Tolerance > 0 && data.MaxDispSq > 0 {
		y = r.DrawBar(x, y, "Converged", ConvergenceProgress(data.MaxDispSq, data.Tolerance), h.width-padding*2)
	}
	if data.Exhausted > 0 || data.Stranded > 0 {
		rl.DrawText(fmt.Sprintf("fallback %d | stranded %d", data.Exhausted, data.Stranded), x, y, r.Theme.FontSize, r.Theme.Warning)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}
