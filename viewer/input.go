package viewer

import rl "github.com/gen2brain/raylib-go/raylib"

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput() {
	v.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeyR) {
		v.pending.Restart = true
		v.pending.Sites = v.controls.Sites()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		v.pending.Stop = true
	}
	if rl.IsKeyPressed(rl.KeyF) {
		v.controls.ShowField = !v.controls.ShowField
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}

	v.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	v.camera.Resize(PanelWidth, 0, w-PanelWidth, h)
}

// handleCameraInput zooms with the wheel and pans with the right mouse button.
func (v *Viewer) handleCameraInput() {
	mouse := rl.GetMousePosition()
	if !v.camera.Contains(mouse.X, mouse.Y) {
		return
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := 1.1
		if wheel < 0 {
			factor = 1 / factor
		}
		v.camera.ZoomAt(mouse.X, mouse.Y, factor)
	}

	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.camera.Pan(-d.X, -d.Y)
	}
}
