package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsAction reports what the user asked for this frame.
type ControlsAction struct {
	Restart bool
	Stop    bool
	Sites   int
}

// ControlsPanel renders the run controls: a site count slider, restart and
// stop buttons, and display toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32

	slider    float32
	ShowField bool
	ShowStuck bool
}

// NewControlsPanel creates a new controls panel starting at sites.
func NewControlsPanel(x, y, width int32, sites int) *ControlsPanel {
	return &ControlsPanel{
		renderer:  NewRenderer(),
		x:         x,
		y:         y,
		width:     width,
		slider:    SliderFromSites(sites),
		ShowStuck: true,
	}
}

// Sites returns the site count selected by the slider.
func (c *ControlsPanel) Sites() int {
	return SitesFromSlider(c.slider)
}

// SetSites moves the slider to n.
func (c *ControlsPanel) SetSites(n int) {
	c.slider = SliderFromSites(n)
}

// Draw renders the panel and returns the action taken this frame.
func (c *ControlsPanel) Draw(running bool) ControlsAction {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	inner := float32(c.width - padding*2)

	panelHeight := lineHeight*7 + padding*2
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := c.y + padding
	y = r.DrawSectionHeader(c.x+padding, y, "Controls")

	sites := c.Sites()
	rl.DrawText(fmt.Sprintf("Sites: %d", sites), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	c.slider = gui.SliderBar(
		rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 16},
		"", "",
		c.slider, 0, 1,
	)
	y += lineHeight + 4

	var act ControlsAction
	half := (inner - float32(padding)) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, "Restart") {
		act.Restart = true
		act.Sites = c.Sites()
	}
	stopLabel := "Stop"
	if !running {
		stopLabel = "Stopped"
	}
	if gui.Button(rl.Rectangle{X: x + half + float32(padding), Y: float32(y), Width: half, Height: 24}, stopLabel) && running {
		act.Stop = true
	}
	y += 24 + padding

	c.ShowField = gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 14, Height: 14}, "Show field", c.ShowField)
	y += lineHeight
	c.ShowStuck = gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 14, Height: 14}, "Mark fallback sites", c.ShowStuck)

	return act
}
