package photom

import(
	"math"
	"testing"
)

func TestRadialExtentMonotonicInThreshold(t *testing.T) {
	g := gaussianGrid(50, 50, 25, 25, 5, 1000)
	center := Centroid{Row: 25, Col: 25}

	fracs := []float64{0.05, 0.1, 0.2, 0.4, 0.8}
	prev := math.Inf(1)
	for _, frac := range fracs {
		ext := RadialExtentFrom(g, center, frac)
		if ext.Radius > prev {
			t.Errorf("radius grew from %f to %f when frac rose to %f", prev, ext.Radius, frac)
		}
		prev = ext.Radius
	}
}

func TestRadialExtentGaussianAnalytic(t *testing.T) {
	// A Gaussian falls to 20% of peak at r = sigma * sqrt(2 ln 5).
	sigma := 5.0
	g := gaussianGrid(50, 50, 25, 25, sigma, 1000)
	center := Centroid{Row: 25, Col: 25}

	want := sigma * math.Sqrt(2*math.Log(5))
	ext := RadialExtentFrom(g, center, 0.2)

	if !ext.Found {
		t.Fatal("no pixel above threshold on a 1000-peak Gaussian")
	}
	if math.Abs(ext.Radius - want) > 0.5 {
		t.Errorf("radius = %f, want %f within 0.5", ext.Radius, want)
	}
}

func TestRadialExtentNothingAboveThreshold(t *testing.T) {
	g := gaussianGrid(20, 20, 10, 10, 3, 100)
	ext := RadialExtentFrom(g, Centroid{Row: 10, Col: 10}, 1.2)

	// frac > 1 selects nothing; that's the fallback zero, flagged so
	// it can't be mistaken for a measured zero.
	if ext.Found {
		t.Error("Found = true with threshold above the image max")
	}
	if ext.Radius != 0 {
		t.Errorf("radius = %f, want 0", ext.Radius)
	}
}

func TestRadialExtentMeasuredZero(t *testing.T) {
	// One bright pixel right under the centroid: a legitimately
	// measured radius of zero, distinguishable from the fallback.
	g := NewGrid(11, 11)
	g.Set(5, 5, 10)

	ext := RadialExtentFrom(g, Centroid{Row: 5, Col: 5}, 0.2)
	if !ext.Found {
		t.Error("Found = false for a measured zero radius")
	}
	if ext.Radius != 0 {
		t.Errorf("radius = %f, want 0", ext.Radius)
	}
}
