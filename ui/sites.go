package ui

import "math"

// Site count slider bounds.
const (
	MinSites = 16
	MaxSites = 64000
)

// SliderFromSites maps a site count to a [0, 1] slider position on a log
// scale, so small counts stay adjustable.
func SliderFromSites(n int) float32 {
	if n <= MinSites {
		return 0
	}
	if n >= MaxSites {
		return 1
	}
	return float32(math.Log(float64(n)/MinSites) / math.Log(MaxSites/MinSites))
}

// SitesFromSlider is the inverse of SliderFromSites, rounded to the nearest
// whole site.
func SitesFromSlider(v float32) int {
	if v <= 0 {
		return MinSites
	}
	if v >= 1 {
		return MaxSites
	}
	n := MinSites * math.Pow(MaxSites/MinSites, float64(v))
	return int(math.Round(n))
}

// ConvergenceProgress maps the convergence metric onto [0, 1] on a log
// scale, from 1 (unrelaxed) to tol (converged).
func ConvergenceProgress(metric, tol float64) float32 {
	if tol <= 0 {
		return 0
	}
	if metric <= tol {
		return 1
	}
	if metric >= 1 || tol >= 1 {
		return 0
	}
	return float32(math.Log(metric) / math.Log(tol))
}
