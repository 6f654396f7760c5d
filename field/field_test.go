package field

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		weights []float64
	}{
		{"zero width", 0, 2, nil},
		{"negative height", 2, -1, nil},
		{"short weights", 2, 2, []float64{0, 0, 0}},
		{"long weights", 1, 1, []float64{0, 0}},
		{"weight above one", 2, 1, []float64{0.5, 1.5}},
		{"negative weight", 2, 1, []float64{-0.1, 0}},
		{"nan weight", 1, 1, []float64{math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.w, tt.h, tt.weights)
			if !errors.Is(err, ErrInvalidField) {
				t.Fatalf("expected ErrInvalidField, got %v", err)
			}
			if f != nil {
				t.Error("expected nil field on error")
			}
		})
	}
}

func TestValid(t *testing.T) {
	f, err := Uniform(3, 2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Valid() {
		t.Error("expected field from Uniform to be valid")
	}
	if (&Field{}).Valid() {
		t.Error("expected zero Field to be invalid")
	}
	var nilField *Field
	if nilField.Valid() {
		t.Error("expected nil Field to be invalid")
	}
}

func TestNewCopiesWeights(t *testing.T) {
	weights := []float64{0.25, 0.5, 0.75, 1}
	f, err := New(2, 2, weights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	weights[0] = 0.9
	if got := f.At(0, 0); got != 0.25 {
		t.Errorf("field changed with caller slice: got %v", got)
	}
	if got := f.At(1, 1); got != 1 {
		t.Errorf("expected At(1,1)=1, got %v", got)
	}
	if got := f.At(2, 0); got != 0 {
		t.Errorf("expected zero out of bounds, got %v", got)
	}
	if got := f.AtPoint(r2.Vec{X: 1.9, Y: 0.1}); got != 0.5 {
		t.Errorf("expected AtPoint in cell (1,0) = 0.5, got %v", got)
	}
	if got := f.AtPoint(r2.Vec{X: -0.5, Y: 0}); got != 0 {
		t.Errorf("expected zero for negative coordinates, got %v", got)
	}
}

func TestMassAndCentroid(t *testing.T) {
	f, err := Uniform(10, 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Mass() != 100 {
		t.Errorf("expected mass 100, got %v", f.Mass())
	}
	c := f.Centroid()
	if c.X != 5 || c.Y != 5 {
		t.Errorf("expected centroid (5,5), got (%v,%v)", c.X, c.Y)
	}

	weights := make([]float64, 100)
	weights[9*10+9] = 1
	f, err = New(10, 10, weights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c = f.Centroid()
	if c.X != 9.5 || c.Y != 9.5 {
		t.Errorf("expected centroid (9.5,9.5), got (%v,%v)", c.X, c.Y)
	}
}

func TestRowAliasesWeights(t *testing.T) {
	f, err := New(3, 2, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := f.Row(1)
	if len(row) != 3 || row[0] != 0.3 || row[2] != 0.5 {
		t.Errorf("unexpected row 1: %v", row)
	}
	if cap(row) != 3 {
		t.Errorf("expected row capacity capped at width, got %d", cap(row))
	}
}

func TestModels(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	white := color.RGBA{255, 255, 255, 255}

	if v := Darkness.Convert(black); v != 1 {
		t.Errorf("expected darkness(black)=1, got %v", v)
	}
	if v := Darkness.Convert(white); v != 0 {
		t.Errorf("expected darkness(white)=0, got %v", v)
	}
	if v := Lightness.Convert(white); math.Abs(v-1) > 1e-9 {
		t.Errorf("expected lightness(white)=1, got %v", v)
	}
	if v := NegLightness.Convert(black); math.Abs(v-1) > 1e-9 {
		t.Errorf("expected neg_lightness(black)=1, got %v", v)
	}
	if _, ok := ModelByName("darkness"); !ok {
		t.Error("expected darkness model to be registered")
	}
	if _, ok := ModelByName("sepia"); ok {
		t.Error("expected unknown model lookup to fail")
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	img.SetGray(3, 1, color.Gray{Y: 0})
	for i := range img.Pix[:7] {
		img.Pix[i] = 255
	}

	f, err := FromImage(img, Darkness, ImageOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Width() != 4 || f.Height() != 2 {
		t.Fatalf("expected 4x2 field, got %dx%d", f.Width(), f.Height())
	}
	if f.At(3, 1) != 1 {
		t.Errorf("expected black pixel weight 1, got %v", f.At(3, 1))
	}
	if f.Mass() != 1 {
		t.Errorf("expected mass 1, got %v", f.Mass())
	}
}

func TestFromImageDownscales(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 100))

	f, err := FromImage(img, Darkness, ImageOptions{MaxDimension: 50, Gamma: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Width() != 50 || f.Height() != 25 {
		t.Errorf("expected 50x25 field, got %dx%d", f.Width(), f.Height())
	}
	if f.AvgDensity() < 0.99 {
		t.Errorf("expected a black image to stay near full density, got %v", f.AvgDensity())
	}
}

func TestFromFunc(t *testing.T) {
	var xs, ys []float64
	f, err := FromFunc(3, 2, func(x, y float64) float64 {
		xs = append(xs, x)
		ys = append(ys, y)
		switch {
		case x < 1:
			return -1
		case x < 2:
			return math.NaN()
		}
		return 2
	})
	if err != nil {
		t.Fatal(err)
	}
	if xs[0] != 0.5 || ys[0] != 0.5 || xs[5] != 2.5 || ys[5] != 1.5 {
		t.Errorf("expected evaluation at cell centres, got x=%v y=%v", xs, ys)
	}
	if f.At(0, 0) != 0 || f.At(1, 0) != 0 || f.At(2, 1) != 1 {
		t.Errorf("expected clamped weights, got %v %v %v", f.At(0, 0), f.At(1, 0), f.At(2, 1))
	}
	if _, err := FromFunc(0, 1, func(x, y float64) float64 { return 0 }); !errors.Is(err, ErrInvalidField) {
		t.Errorf("expected ErrInvalidField, got %v", err)
	}
}

func TestSyntheticFields(t *testing.T) {
	f, err := Radial(40, 40)
	if err != nil {
		t.Fatal(err)
	}
	if f.At(20, 20) <= f.At(30, 20) {
		t.Error("expected radial field densest at the centre")
	}
	if f.At(0, 0) != 0 {
		t.Errorf("expected corner outside the circle to be empty, got %v", f.At(0, 0))
	}
	c := f.Centroid()
	if math.Abs(c.X-20) > 1e-9 || math.Abs(c.Y-20) > 1e-9 {
		t.Errorf("expected symmetric centroid (20,20), got %v", c)
	}

	rings, err := Rings(64, 64, 3)
	if err != nil {
		t.Fatal(err)
	}
	if rings.Mass() <= 0 || rings.Mass() >= float64(rings.Len()) {
		t.Errorf("expected partial mass, got %v", rings.Mass())
	}
}
