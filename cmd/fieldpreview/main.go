// Field preview tool - interactive tuning of how an image becomes a density
// field, with sliders for gamma and resolution.
//
// Usage: go run ./cmd/fieldpreview -image photo.png
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/stipple/config"
	"github.com/pthm-cable/stipple/field"
	"github.com/pthm-cable/stipple/renderer"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 600
	panelWidth   = windowWidth - previewSize - 30
)

var models = []string{"darkness", "luminance", "lightness", "neg_lightness", "alpha"}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Source image (empty = synthetic field from config)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	params := cfg.Field
	initial := params

	rl.InitWindow(windowWidth, windowHeight, "Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	tex := renderer.NewFieldRenderer()
	defer tex.Unload()

	var f *field.Field
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			next, err := buildField(cfg, params, *imagePath)
			if err != nil {
				slog.Error("failed to build field", "error", err)
			} else {
				f = next
				tex.SetField(f)
			}
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		if f != nil {
			view := renderer.Fit(f.Width(), f.Height(), 10, 10, previewSize, previewSize)
			tex.Draw(view, 255)
			rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

			statsY := int32(previewSize + 25)
			rl.DrawText(fmt.Sprintf("Size: %dx%d  Mass: %.1f  Avg: %.3f", f.Width(), f.Height(), f.Mass(), f.AvgDensity()), 15, statsY, 16, rl.DarkGray)
			c := f.Centroid()
			rl.DrawText(fmt.Sprintf("Centre of mass: (%.1f, %.1f)", c.X, c.Y), 15, statsY+20, 16, rl.DarkGray)
		}

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		// Gamma slider
		rl.DrawText("Gamma (weight exponent)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newGamma := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.2", "4.0",
			float32(params.Gamma), 0.2, 4.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.Gamma), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if float64(newGamma) != params.Gamma {
			params.Gamma = float64(newGamma)
			needsRegen = true
		}
		panelY += 35

		// Resolution slider
		rl.DrawText("Max dimension (field cells)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newDim := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"32", "1024",
			float32(params.MaxDimension), 32, 1024,
		)
		rl.DrawText(fmt.Sprintf("%d", params.MaxDimension), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newDim) != params.MaxDimension {
			params.MaxDimension = int(newDim)
			needsRegen = *imagePath != ""
		}
		panelY += 45

		// Model buttons
		rl.DrawText("Model", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		for i, name := range models {
			label := name
			if name == params.Model {
				label = "> " + name
			}
			x := panelX + float32(i%2)*130
			y := panelY + float32(i/2)*35
			if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 30}, label) && name != params.Model {
				params.Model = name
				needsRegen = true
			}
		}
		panelY += float32((len(models)+1)/2)*35 + 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = initial
			needsRegen = true
		}
		panelY += 55

		// Output YAML
		out := fieldYAML(params)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(out, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(out)
		}

		rl.EndDrawing()
	}
}

// buildField rebuilds the field with the previewed parameters.
func buildField(cfg *config.Config, params config.FieldConfig, imagePath string) (*field.Field, error) {
	c := *cfg
	c.Field = params
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Derived.Model, _ = field.ModelByName(params.Model)
	return c.BuildField(imagePath)
}

// fieldYAML renders params as a field: section for a user config.
func fieldYAML(params config.FieldConfig) string {
	data, err := yaml.Marshal(struct {
		Field config.FieldConfig `yaml:"field"`
	}{params})
	if err != nil {
		return err.Error()
	}
	return string(data)
}
