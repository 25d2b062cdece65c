package photom

import "math"

// DefaultThresholdFrac is the compromise threshold for the radial
// extent estimate: 20% of peak is faint enough to catch the outer
// envelope of the object but high enough to stay out of the
// background noise. Lower fractions pull in fainter, noisier pixels
// and push the radius outward; higher ones shrink it to the core.
const DefaultThresholdFrac = 0.2

// A RadialExtent is the estimated outer radius of the object. Found
// distinguishes a measured radius (even a zero one, when the only
// pixel above threshold sits under the centroid) from the fallback
// when nothing clears the threshold at all.
type RadialExtent struct {
	Radius float64
	Found  bool
}

// RadialExtentFrom estimates the object's radius as the largest
// Euclidean distance from `center` to any pixel brighter than
// thresholdFrac times the image maximum. The radius is non-increasing
// in thresholdFrac: raising the bar can only drop pixels from the
// selection.
func RadialExtentFrom(g *Grid, center Centroid, thresholdFrac float64) RadialExtent {
	threshold := g.MaxValue() * thresholdFrac

	ext := RadialExtent{}
	for y:=0; y<g.Dy(); y++ {
		for x:=0; x<g.Dx(); x++ {
			if g.Get(x, y) <= threshold {
				continue
			}
			dr := float64(y) - center.Row
			dc := float64(x) - center.Col
			d := math.Sqrt(dr*dr + dc*dc)
			if !ext.Found || d > ext.Radius {
				ext.Radius = d
				ext.Found = true
			}
		}
	}
	return ext
}
