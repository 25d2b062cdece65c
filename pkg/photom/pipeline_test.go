package photom

import(
	"errors"
	"math"
	"testing"
)

// The full degenerate-stack scenario: three constant frames with one
// outlier each stack to a perfectly flat image, which normalizes to
// all-zero, on which the weighted centroid is undefined.
func TestPipelineFlatStack(t *testing.T) {
	frames := map[string]*Grid{
		"f1": uniformGrid(10, 10, 100),
		"f2": uniformGrid(10, 10, 100),
		"f3": uniformGrid(10, 10, 100),
	}
	frames["f1"].Set(4, 4, 10000)
	frames["f2"].Set(7, 2, 10000)
	frames["f3"].Set(0, 9, 10000)

	combined, err := Aggregate(mapLoader(frames), []string{"f1", "f2", "f3"})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for y:=0; y<10; y++ {
		for x:=0; x<10; x++ {
			if combined.Get(x,y) != 100 {
				t.Fatalf("combined (%d,%d) = %f, want 100", x, y, combined.Get(x,y))
			}
		}
	}

	corrected, sky := Normalize(combined)
	if sky != 100 {
		t.Fatalf("sky = %f, want 100", sky)
	}

	_, err = WeightedCentroid(corrected)
	var degen DegenerateImageError
	if !errors.As(err, &degen) {
		t.Fatalf("want DegenerateImageError on the all-zero image, got %v", err)
	}
}

// The happy-path scenario: a Gaussian galaxy stand-in runs through
// every stage and the estimates match the analytic values.
func TestPipelineGaussianObject(t *testing.T) {
	sigma := 5.0
	frame := gaussianGrid(50, 50, 25, 25, sigma, 1000)
	frames := map[string]*Grid{"a": frame, "b": frame.Copy(), "c": frame.Copy()}

	combined, err := Aggregate(mapLoader(frames), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	corrected, sky := Normalize(combined)
	if sky != 0 {
		t.Fatalf("sky = %f, want 0 (zero-background synthetic)", sky)
	}

	center, err := WeightedCentroid(corrected)
	if err != nil {
		t.Fatalf("WeightedCentroid: %v", err)
	}
	if math.Abs(center.Row - 25) > 0.5 || math.Abs(center.Col - 25) > 0.5 {
		t.Fatalf("centroid = %s, want (25, 25) within 0.5", center)
	}

	ext := RadialExtentFrom(corrected, center, 0.2)
	want := sigma * math.Sqrt(2*math.Log(5))
	if !ext.Found || math.Abs(ext.Radius - want) > 1.0 {
		t.Fatalf("radius = %f (found %v), want %f within 1.0", ext.Radius, ext.Found, want)
	}

	profile := FitProfile(corrected, center, FitOptions{})
	if profile.ValidCount() == 0 {
		t.Fatal("no valid isophotes on a clean Gaussian")
	}
	validSmasStrictlyIncrease(t, profile)

	// Circular object: fitted ellipticity should stay small.
	for _, iso := range profile {
		if iso.Valid && iso.Sma > 5 && iso.Sma < 15 && iso.Eps > 0.2 {
			t.Errorf("ring sma=%.1f eps=%f on a circular object", iso.Sma, iso.Eps)
		}
	}
}
