package photom

import "fmt"

// A Centroid is a brightness-weighted center, in image coordinates.
// Row is the y axis, Col the x axis. It can legitimately sit outside
// the frame when the object is partially out of shot.
type Centroid struct {
	Row float64
	Col float64
}

func (c Centroid)String() string { return fmt.Sprintf("(%.2f, %.2f)", c.Row, c.Col) }

// WeightedCentroid computes the intensity-weighted center of mass of
// a background-corrected image. Negative pixels are expected after
// sky subtraction and are included, no clipping. If the total
// intensity sums to zero the centroid is undefined and the caller
// gets a DegenerateImageError; falling back to GeometricCenter is the
// documented policy, but that's the caller's call.
func WeightedCentroid(g *Grid) (Centroid, error) {
	var total, sumR, sumC float64
	for y:=0; y<g.Dy(); y++ {
		for x:=0; x<g.Dx(); x++ {
			v := g.Get(x, y)
			total += v
			sumR += v * float64(y)
			sumC += v * float64(x)
		}
	}

	if total == 0 {
		return Centroid{}, DegenerateImageError{Reason: "zero total intensity, centroid undefined"}
	}

	return Centroid{Row: sumR / total, Col: sumC / total}, nil
}

// GeometricCenter is the fallback when the weighted centroid is
// undefined: just the middle of the pixel lattice.
func GeometricCenter(g *Grid) Centroid {
	return Centroid{
		Row: float64(g.Dy()-1) / 2.0,
		Col: float64(g.Dx()-1) / 2.0,
	}
}
