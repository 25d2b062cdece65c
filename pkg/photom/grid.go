package photom

import(
	"fmt"
	"math"
)

// A Grid is a 2-D raster of float64 pixel intensities. x runs along a
// row (FITS NAXIS1), y down the columns (NAXIS2). All pipeline stages
// take grids and return fresh ones; nothing mutates a grid it didn't
// allocate itself.
type Grid struct {
	stride int
	values []float64
}

func NewGrid(w, h int) *Grid {
	return &Grid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g *Grid)Set(x, y int, v float64) { g.values[g.stride*y + x] = v }
func (g *Grid)Get(x, y int) float64    { return g.values[g.stride*y + x] }
func (g *Grid)Dx() int                 { return g.stride }
func (g *Grid)Dy() int                 { return len(g.values) / g.stride }

func (g1 *Grid)Copy() *Grid {
	g2 := Grid{stride: g1.stride, values: make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return &g2
}

// MaxValue scans for the brightest pixel.
func (g *Grid)MaxValue() float64 {
	max := math.Inf(-1)
	for i:=0; i<len(g.values); i++ {
		if g.values[i] > max { max = g.values[i] }
	}
	return max
}

func (g *Grid)MinValue() float64 {
	min := math.Inf(1)
	for i:=0; i<len(g.values); i++ {
		if g.values[i] < min { min = g.values[i] }
	}
	return min
}

// SubScalar returns a new grid with `v` subtracted from every pixel.
func (g1 *Grid)SubScalar(v float64) *Grid {
	g2 := g1.Copy()
	for i:=0; i<len(g2.values); i++ {
		g2.values[i] -= v
	}
	return g2
}

// Bilinear samples the grid at a sub-pixel position. Positions are
// clamped to the outermost pixel centers, so callers that already
// bounds-check never see an edge effect.
func (g *Grid)Bilinear(x, y float64) float64 {
	w, h := g.Dx(), g.Dy()

	if x < 0 { x = 0 }
	if y < 0 { y = 0 }
	if x > float64(w-1) { x = float64(w-1) }
	if y > float64(h-1) { y = float64(h-1) }

	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 > w-1 { x1 = w-1 }
	if y1 > h-1 { y1 = h-1 }

	fx, fy := x - float64(x0), y - float64(y0)

	v0 := g.Get(x0,y0)*(1-fx) + g.Get(x1,y0)*fx
	v1 := g.Get(x0,y1)*(1-fx) + g.Get(x1,y1)*fx
	return v0*(1-fy) + v1*fy
}

// Contains reports whether the (sub-pixel) position lands inside the
// pixel lattice.
func (g *Grid)Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x <= float64(g.Dx()-1) && y <= float64(g.Dy()-1)
}

func (g *Grid)Stats() string {
	return fmt.Sprintf("grid[%dx%d, vals{%f,%f}]", g.Dx(), g.Dy(), g.MinValue(), g.MaxValue())
}
