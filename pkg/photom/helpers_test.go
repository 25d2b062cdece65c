package photom

import(
	"fmt"
	"math"
)

func uniformGrid(w, h int, v float64) *Grid {
	g := NewGrid(w, h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			g.Set(x, y, v)
		}
	}
	return g
}

// gaussianGrid builds a circular 2-D Gaussian bump on a zero
// background. Values below 1e-6 are floored to exactly zero so the
// background really is zero, not a carpet of distinct tiny floats.
func gaussianGrid(w, h int, cRow, cCol, sigma, peak float64) *Grid {
	g := NewGrid(w, h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			dr := float64(y) - cRow
			dc := float64(x) - cCol
			v := peak * math.Exp(-(dr*dr + dc*dc)/(2*sigma*sigma))
			if v < 1e-6 { v = 0 }
			g.Set(x, y, v)
		}
	}
	return g
}

// ellipticalGrid builds an exponential-falloff elliptical "galaxy"
// with the given ellipticity and position angle (radians).
func ellipticalGrid(w, h int, cRow, cCol, eps, pa, scale, peak float64) *Grid {
	sinPA, cosPA := math.Sincos(pa)
	g := NewGrid(w, h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			dc := float64(x) - cCol
			dr := float64(y) - cRow
			u := dc*cosPA + dr*sinPA       // along the major axis
			v := -dc*sinPA + dr*cosPA      // along the minor axis
			rEll := math.Sqrt(u*u + (v/(1.0-eps))*(v/(1.0-eps)))
			g.Set(x, y, peak*math.Exp(-rEll/scale))
		}
	}
	return g
}

func mapLoader(frames map[string]*Grid) LoadFunc {
	return func(id string) (*Grid, error) {
		g, exists := frames[id]
		if !exists {
			return nil, fmt.Errorf("no frame %q", id)
		}
		return g, nil
	}
}
