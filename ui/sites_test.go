package ui

import "testing"

func TestSliderSitesBounds(t *testing.T) {
	if got := SliderFromSites(1); got != 0 {
		t.Errorf("expected 0 below minimum, got %v", got)
	}
	if got := SliderFromSites(1 << 20); got != 1 {
		t.Errorf("expected 1 above maximum, got %v", got)
	}
	if got := SitesFromSlider(-1); got != MinSites {
		t.Errorf("expected %d, got %d", MinSites, got)
	}
	if got := SitesFromSlider(2); got != MaxSites {
		t.Errorf("expected %d, got %d", MaxSites, got)
	}
}

func TestSliderSitesRoundTrip(t *testing.T) {
	for _, n := range []int{MinSites, 100, 1000, 4000, 20000, MaxSites} {
		got := SitesFromSlider(SliderFromSites(n))
		// float32 slider positions lose a little precision at the top end.
		if diff := got - n; diff < -2 || diff > 2 {
			t.Errorf("round trip %d -> %d", n, got)
		}
	}
}

func TestConvergenceProgress(t *testing.T) {
	tests := []struct {
		name   string
		metric float64
		tol    float64
		want   float32
	}{
		{"no tolerance", 1, 0, 0},
		{"converged", 1e-6, 1e-4, 1},
		{"at start", 1, 1e-4, 0},
		{"halfway", 1e-2, 1e-4, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvergenceProgress(tt.metric, tt.tol)
			if d := got - tt.want; d < -1e-5 || d > 1e-5 {
				t.Errorf("ConvergenceProgress(%v, %v) = %v, want %v", tt.metric, tt.tol, got, tt.want)
			}
		})
	}
}
