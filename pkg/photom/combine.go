package photom

import(
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/codahale/hdrhistogram"
	"github.com/rs/zerolog/log"
)

// LoadFunc resolves a frame identifier into its pixel grid. The
// aggregator doesn't care where pixels come from; the frameio package
// provides the FITS-backed implementation.
type LoadFunc func(id string) (*Grid, error)

// Aggregate loads every selected frame and combines them into a
// single image by taking the per-pixel median across the stack. The
// median shrugs off cosmic-ray hits and satellite trails that only
// appear in one frame, with no masking step, and makes the result
// independent of the order the frames arrive in.
//
// Frame loads run concurrently (they're independent file reads); no
// combining happens until every load has landed.
func Aggregate(load LoadFunc, ids []string) (*Grid, error) {
	if len(ids) == 0 {
		return nil, EmptySelectionError{}
	}

	grids := make([]*Grid, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			grids[i], errs[i] = load(ids[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("load frame %s: %w", ids[i], err)
		}
	}

	w, h := grids[0].Dx(), grids[0].Dy()
	for i:=1; i<len(grids); i++ {
		if grids[i].Dx() != w || grids[i].Dy() != h {
			return nil, ShapeMismatchError{
				Frame: ids[i],
				WantW: w, WantH: h,
				GotW: grids[i].Dx(), GotH: grids[i].Dy(),
			}
		}
	}

	out := NewGrid(w, h)
	column := make([]float64, len(grids))
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			for i, g := range grids {
				column[i] = g.Get(x, y)
			}
			out.Set(x, y, median(column))
		}
	}

	logCombinedHistogram(out, len(grids))

	return out, nil
}

// median sorts in place; callers hand over a scratch slice.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n % 2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2.0
}

// logCombinedHistogram emits a one-line intensity distribution of the
// combined image, handy for eyeballing whether the sky dominates the
// pixel counts the way the background normalizer assumes.
func logCombinedHistogram(g *Grid, nFrames int) {
	min, max := g.MinValue(), g.MaxValue()
	if !isFinite(min) || !isFinite(max) || min == max {
		return
	}

	// hdrhistogram wants int64s starting at 1, so shift the range up.
	lo, hi := int64(1), int64(math.Ceil(max - min)) + 1
	hist := hdrhistogram.New(lo, hi, 3)
	for y:=0; y<g.Dy(); y++ {
		for x:=0; x<g.Dx(); x++ {
			hist.RecordValue(int64(g.Get(x,y) - min) + 1)
		}
	}

	log.Debug().
		Int("frames", nFrames).
		Float64("p50", float64(hist.ValueAtQuantile(50)-1) + min).
		Float64("p99", float64(hist.ValueAtQuantile(99)-1) + min).
		Float64("max", max).
		Msg("combined image intensity distribution")
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
