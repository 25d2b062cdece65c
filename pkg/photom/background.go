package photom

// Normalize estimates the sky level of a combined image and subtracts
// it uniformly, returning the corrected image and the estimate. The
// sky is taken as the statistical mode of the pixel intensities:
// in a sky-dominated exposure most pixels are background, so the most
// frequent value is the sky. A perfectly flat image normalizes to
// all-zero, which is correct, not an error.
func Normalize(g *Grid) (*Grid, float64) {
	sky := ModalValue(g)
	return g.SubScalar(sky), sky
}

// ModalValue returns the most frequent exact pixel value. Ties break
// to the smallest value, so the estimate is reproducible no matter
// how the pixels are ordered in memory.
func ModalValue(g *Grid) float64 {
	counts := map[float64]int{}
	for y:=0; y<g.Dy(); y++ {
		for x:=0; x<g.Dx(); x++ {
			counts[g.Get(x,y)]++
		}
	}

	best := 0.0
	bestN := 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}
