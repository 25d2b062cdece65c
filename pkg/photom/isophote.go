package photom

import(
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// The fitter never lets an ellipse get flatter than this; the
// semi-minor axis collapses towards zero and sampling turns into
// garbage well before eps reaches 1.
const maxEps = 0.95

// Nor rounder than this: at eps = 0 the position angle is undefined
// and its correction term divides by zero, so a trial ellipse that
// wants to be a circle gets pinned just shy of one.
const minEps = 0.01

// Per-iteration correction step bounds. The harmonic inversion behind
// the corrections is linear in the geometry mismatch with a gain set
// by the trial ellipticity; when the trial is badly wrong, so is the
// gain, and an unclamped position-angle step slingshots past the
// target instead of landing on it.
const(
	maxPAStep  = 0.2 // radians
	maxEpsStep = 0.1
)

// A ring whose applied correction shrinks below this has stopped
// moving; further iterations only chase interpolation noise.
const stepTol = 0.002

// A ring at the iteration cap is still acceptable if its leftover
// harmonic amplitudes are within this slack of the convergence bar.
const capSlack = 2.0

// An Isophote is one fitted ring of (approximately) constant surface
// brightness. Invalid rings are kept in the profile so its length
// still encodes the full scanned radial range.
type Isophote struct {
	Sma    float64 // semi-major axis, pixels
	Intens float64 // mean intensity along the ellipse
	Eps    float64 // ellipticity, 1 - b/a
	PA     float64 // position angle, radians, in [-pi/2, pi/2)
	RMS    float64 // residual scatter of the samples around the harmonic fit
	Iters  int     // refinement iterations spent on this ring
	Valid  bool
}

// A Profile is a surface-brightness profile: isophotes ordered by
// increasing semi-major axis, possibly with invalid rings in between.
type Profile []Isophote

func (p Profile)ValidCount() int {
	n := 0
	for _, iso := range p {
		if iso.Valid { n++ }
	}
	return n
}

// FitOptions bound the isophote fitter. Zero values fall back to the
// defaults, so FitProfile(g, c, FitOptions{}) just works.
type FitOptions struct {
	SeedSma       float64 `yaml:"seedsma"`       // semi-major axis of the first ring
	SmaStep       float64 `yaml:"smastep"`       // geometric growth factor between rings, > 1
	MaxSma        float64 `yaml:"maxsma"`        // 0 means scan out to the image edge
	Samples       int     `yaml:"samples"`       // intensity samples per ring
	MaxIters      int     `yaml:"maxiters"`      // refinement cap per ring
	HarmonicTol   float64 `yaml:"harmonictol"`   // converged when max harmonic < tol * residual rms
	MaxConsecFail int     `yaml:"maxconsecfail"` // consecutive diverged rings before giving up
}

func DefaultFitOptions() FitOptions {
	return FitOptions{
		SeedSma:       3.0,
		SmaStep:       1.10,
		MaxSma:        0,
		Samples:       64,
		MaxIters:      30,
		HarmonicTol:   0.05,
		MaxConsecFail: 4,
	}
}

func (o FitOptions)withDefaults() FitOptions {
	d := DefaultFitOptions()
	if o.SeedSma <= 0       { o.SeedSma = d.SeedSma }
	if o.SmaStep <= 1.0     { o.SmaStep = d.SmaStep }
	if o.Samples < 16       { o.Samples = d.Samples }
	if o.MaxIters <= 0      { o.MaxIters = d.MaxIters }
	if o.HarmonicTol <= 0   { o.HarmonicTol = d.HarmonicTol }
	if o.MaxConsecFail <= 0 { o.MaxConsecFail = d.MaxConsecFail }
	return o
}

// Per-ring fitter states. Each ring runs seeding -> fitting ->
// {converged, diverged}; the scan over rings ends in terminated, either
// at the outer boundary or after too many consecutive divergences.
type ringState int

const(
	ringSeeding ringState = iota
	ringFitting
	ringConverged
	ringDiverged
	ringTerminated
)

// FitProfile fits a sequence of elliptical isophotes of growing
// semi-major axis around a fixed center and returns the resulting
// surface-brightness profile. Per ring it refines ellipticity and
// position angle by least-squares fitting low-order harmonics to the
// intensity sampled along the trial ellipse (Jedrzejewski's scheme:
// on a true isophote all harmonic amplitudes vanish), steering with
// the 2nd-harmonic terms and the local radial intensity gradient.
// Correction steps are clamped per iteration, so a badly wrong seed
// walks to the isophote instead of slingshotting past it.
//
// A ring that diverges is recorded as an invalid record and the scan
// moves on with the last good geometry; only MaxConsecFail failures
// in a row end the scan early. Every loop is bounded, so this always
// terminates and never returns an error: whatever profile was
// assembled is the answer.
func FitProfile(g *Grid, center Centroid, opts FitOptions) Profile {
	opts = opts.withDefaults()

	profile := Profile{}
	maxSma := smaBound(g, center, opts.MaxSma)
	if maxSma < opts.SeedSma {
		// Center is at (or beyond) the image edge; nothing to scan.
		return profile
	}

	// Seed geometry: a nearly-circular ellipse. Carried ring to ring;
	// diverged rings don't get to corrupt it.
	eps, pa := 0.1, 0.0
	consec := 0

	state := ringSeeding
	for sma := opts.SeedSma; sma <= maxSma && state != ringTerminated; sma *= opts.SmaStep {
		state = ringFitting
		iso, endState := fitRing(g, center, sma, eps, pa, opts)
		profile = append(profile, iso)

		switch endState {
		case ringConverged:
			eps, pa = iso.Eps, iso.PA
			consec = 0
		case ringDiverged:
			consec++
			if consec >= opts.MaxConsecFail {
				state = ringTerminated
			}
		}
	}

	return profile
}

// smaBound caps the scan so that every point of every trial ellipse
// stays on the pixel lattice: all ellipse points lie within sma of
// the center, so the nearest image edge is a safe bound.
func smaBound(g *Grid, c Centroid, maxSma float64) float64 {
	bound := math.Min(
		math.Min(c.Col, float64(g.Dx()-1) - c.Col),
		math.Min(c.Row, float64(g.Dy()-1) - c.Row))
	if maxSma > 0 && maxSma < bound {
		bound = maxSma
	}
	return bound
}

func fitRing(g *Grid, c Centroid, sma, eps, pa float64, opts FitOptions) (Isophote, ringState) {
	iso := Isophote{Sma: sma, Eps: eps, PA: pa}

	prevRMS := math.Inf(1)
	grew := 0
	var h [4]float64

	for it:=1; it<=opts.MaxIters; it++ {
		iso.Iters = it

		vals, angles, inBounds := sampleEllipse(g, c, sma, eps, pa, opts.Samples)
		if !inBounds {
			return iso, ringDiverged
		}

		var mean, rms float64
		var ok bool
		mean, h, rms, ok = fitHarmonics(vals, angles)
		if !ok {
			return iso, ringDiverged
		}
		iso.Intens, iso.Eps, iso.PA, iso.RMS = mean, eps, pa, rms

		// Converged: every harmonic amplitude is lost in the sample scatter.
		if rms == 0 || maxAbs(h) <= opts.HarmonicTol*rms {
			iso.Valid = true
			return iso, ringConverged
		}

		// Material growth only: sub-pixel sampling makes the residual
		// jitter a little even at the right geometry.
		if rms > prevRMS*1.05 {
			grew++
			if grew >= 2 {
				// Residual growing two iterations running: we're walking
				// away from the isophote, not towards it.
				return iso, ringDiverged
			}
		} else {
			grew = 0
		}
		prevRMS = rms

		grad := radialGradient(g, c, sma, eps, pa, opts.Samples, mean)
		if !isFinite(grad) || grad >= 0 {
			// No usable outward falloff to steer the corrections; keep the
			// measurement we have rather than thrash.
			iso.Valid = true
			return iso, ringConverged
		}

		// Steer the free parameters with the 2nd harmonics. The 1st
		// harmonics would correct the center, which stays fixed here.
		a2, b2 := h[2], h[3]
		applied := 0.0
		if math.Abs(a2) >= math.Abs(b2) {
			step := clampStep(a2*2.0*(1.0-eps)/sma/grad/((1.0-eps)*(1.0-eps)-1.0), maxPAStep)
			pa = wrapPA(pa + step)
			applied = step
		} else {
			step := clampStep(-b2*2.0*(1.0-eps)/sma/grad, maxEpsStep)
			next := eps + step
			if next < minEps { next = minEps }
			applied = next - eps
			eps = next
		}

		if !isFinite(eps) || !isFinite(pa) || eps >= maxEps {
			return iso, ringDiverged
		}

		// Converged: the correction the harmonics ask for is below the
		// fit's geometric resolution.
		if math.Abs(applied) < stepTol {
			iso.Eps, iso.PA = eps, pa
			iso.Valid = true
			return iso, ringConverged
		}
	}

	// Iteration cap: acceptable only when the leftover harmonics are
	// nearly buried in the sample scatter.
	if isFinite(iso.RMS) && maxAbs(h) <= capSlack*opts.HarmonicTol*iso.RMS {
		iso.Valid = true
		return iso, ringConverged
	}
	return iso, ringDiverged
}

func clampStep(step, limit float64) float64 {
	if step > limit  { return limit }
	if step < -limit { return -limit }
	return step
}

// sampleEllipse reads the image along the trial ellipse at n evenly
// spaced eccentric anomalies. Any sample landing off the lattice
// fails the whole ring.
func sampleEllipse(g *Grid, c Centroid, sma, eps, pa float64, n int) (vals, angles []float64, inBounds bool) {
	smin := sma * (1.0 - eps)
	sinPA, cosPA := math.Sincos(pa)

	vals = make([]float64, n)
	angles = make([]float64, n)
	for i:=0; i<n; i++ {
		E := 2.0 * math.Pi * float64(i) / float64(n)
		sinE, cosE := math.Sincos(E)
		x := c.Col + sma*cosE*cosPA - smin*sinE*sinPA
		y := c.Row + sma*cosE*sinPA + smin*sinE*cosPA
		if !g.Contains(x, y) {
			return nil, nil, false
		}
		vals[i] = g.Bilinear(x, y)
		angles[i] = E
	}
	return vals, angles, true
}

// fitHarmonics least-squares fits
//
//	I(E) = I0 + a1 sin E + b1 cos E + a2 sin 2E + b2 cos 2E
//
// to the ring samples and returns the mean intensity I0, the harmonic
// amplitudes h = [a1 b1 a2 b2], and the residual RMS.
func fitHarmonics(vals, angles []float64) (mean float64, h [4]float64, rms float64, ok bool) {
	n := len(vals)

	A := mat.NewDense(n, 5, nil)
	b := mat.NewVecDense(n, nil)
	for i:=0; i<n; i++ {
		if !isFinite(vals[i]) {
			return 0, h, 0, false
		}
		E := angles[i]
		A.Set(i, 0, 1.0)
		A.Set(i, 1, math.Sin(E))
		A.Set(i, 2, math.Cos(E))
		A.Set(i, 3, math.Sin(2.0*E))
		A.Set(i, 4, math.Cos(2.0*E))
		b.SetVec(i, vals[i])
	}

	var qr mat.QR
	qr.Factorize(A)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, b); err != nil {
		return 0, h, 0, false
	}

	mean = beta.AtVec(0)
	for i:=0; i<4; i++ {
		h[i] = beta.AtVec(i+1)
	}

	res := make([]float64, n)
	for i:=0; i<n; i++ {
		E := angles[i]
		fit := mean + h[0]*math.Sin(E) + h[1]*math.Cos(E) + h[2]*math.Sin(2.0*E) + h[3]*math.Cos(2.0*E)
		res[i] = vals[i] - fit
	}
	rms = stat.StdDev(res, nil)

	return mean, h, rms, isFinite(mean) && isFinite(rms)
}

// radialGradient estimates dI/da at the ring by comparing the mean
// intensity on a slightly larger bracketing ellipse with the ring's
// own mean. Healthy objects give a negative gradient (dimmer
// outward); anything else means the corrections can't be trusted.
func radialGradient(g *Grid, c Centroid, sma, eps, pa float64, n int, ringMean float64) float64 {
	outer := sma * 1.1
	vals, _, inBounds := sampleEllipse(g, c, outer, eps, pa, n)
	if !inBounds {
		return math.NaN()
	}
	return (stat.Mean(vals, nil) - ringMean) / (outer - sma)
}

func wrapPA(pa float64) float64 {
	pa = math.Mod(pa + math.Pi/2.0, math.Pi)
	if pa < 0 {
		pa += math.Pi
	}
	return pa - math.Pi/2.0
}

func maxAbs(h [4]float64) float64 {
	max := 0.0
	for _, v := range h {
		if a := math.Abs(v); a > max { max = a }
	}
	return max
}
