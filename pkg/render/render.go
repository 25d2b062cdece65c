// Package render is the pipeline's output sink: it turns
// already-computed values (images, profiles) into files and tables.
// No estimation logic lives here.
package render

import(
	"fmt"
	"image"
	"math"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/tiff"

	"galprof/pkg/photom"
)

// WriteGrayPNG saves a grayscale rendering of the grid, normalized to
// its own value range and gamma-expanded so linear sky data doesn't
// look pitch black to human eyes. The title is burned into the corner.
func WriteGrayPNG(g *photom.Grid, title, filename string) error {
	min, max := g.MinValue(), g.MaxValue()
	span := max - min
	if span == 0 { span = 1 }

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{g.Dx(), g.Dy()}})
	for y:=0; y<g.Dy(); y++ {
		for x:=0; x<g.Dx(); x++ {
			gray := gammaExpand((g.Get(x,y) - min) / span)
			v := uint16(gray * 65535.0)
			i := img.PixOffset(x, y)
			img.Pix[i+0], img.Pix[i+1] = uint8(v>>8), uint8(v)
			img.Pix[i+2], img.Pix[i+3] = uint8(v>>8), uint8(v)
			img.Pix[i+4], img.Pix[i+5] = uint8(v>>8), uint8(v)
			img.Pix[i+6], img.Pix[i+7] = 0xff, 0xff
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}

// WriteGrayTIFF saves the grid as linear 16-bit grayscale TIFF, the
// format downstream photometry tools expect for reduced images.
func WriteGrayTIFF(g *photom.Grid, filename string) error {
	min, max := g.MinValue(), g.MaxValue()
	span := max - min
	if span == 0 { span = 1 }

	img := image.NewGray16(image.Rectangle{Max: image.Point{g.Dx(), g.Dy()}})
	for y:=0; y<g.Dy(); y++ {
		for x:=0; x<g.Dx(); x++ {
			v := uint16((g.Get(x,y) - min) / span * 65535.0)
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1] = uint8(v>>8), uint8(v)
		}
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()
	return tiff.Encode(writer, img, nil)
}

const(
	plotW, plotH = 800, 500
	plotMargin   = 60.0
)

// WriteProfilePlot draws the surface-brightness profile: semi-major
// axis along x, mean intensity along y. The y axis is inverted, the
// astronomer's convention — brightness falls going outward, the curve
// falls to the right. Invalid rings are skipped.
func WriteProfilePlot(p photom.Profile, title, filename string) error {
	dc := gg.NewContext(plotW, plotH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	var smas, vals []float64
	for _, iso := range p {
		if iso.Valid {
			smas = append(smas, iso.Sma)
			vals = append(vals, iso.Intens)
		}
	}

	dc.DrawString(title, plotMargin, plotMargin/2)
	dc.DrawString("semi-major axis (pixels)", plotW/2 - 60, plotH - plotMargin/3)

	// Axes
	dc.DrawLine(plotMargin, plotMargin, plotMargin, plotH - plotMargin)
	dc.DrawLine(plotMargin, plotH - plotMargin, plotW - plotMargin, plotH - plotMargin)
	dc.Stroke()

	if len(smas) == 0 {
		dc.DrawString("no valid isophotes", plotW/2 - 40, plotH/2)
		return dc.SavePNG(filename)
	}

	xMin, xMax := 0.0, smas[len(smas)-1]
	yMin, yMax := minMax(vals)
	if xMax == xMin { xMax = xMin + 1 }
	if yMax == yMin { yMax = yMin + 1 }

	// y inverted: bright at the bottom of the value range plots high
	toX := func(sma float64) float64 {
		return plotMargin + (sma - xMin) / (xMax - xMin) * (plotW - 2*plotMargin)
	}
	toY := func(v float64) float64 {
		return plotMargin + (v - yMin) / (yMax - yMin) * (plotH - 2*plotMargin)
	}

	// Ticks
	for i:=0; i<=5; i++ {
		fx := xMin + (xMax - xMin) * float64(i) / 5.0
		fy := yMin + (yMax - yMin) * float64(i) / 5.0
		dc.DrawLine(toX(fx), plotH - plotMargin, toX(fx), plotH - plotMargin + 5)
		dc.DrawLine(plotMargin - 5, toY(fy), plotMargin, toY(fy))
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%.0f", fx), toX(fx), plotH - plotMargin + 18, 0.5, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%.3g", fy), plotMargin - 30, toY(fy), 0.5, 0.5)
	}

	dc.SetRGB(0.1, 0.1, 0.7)
	for i:=0; i<len(smas); i++ {
		if i > 0 {
			dc.DrawLine(toX(smas[i-1]), toY(vals[i-1]), toX(smas[i]), toY(vals[i]))
			dc.Stroke()
		}
		dc.DrawCircle(toX(smas[i]), toY(vals[i]), 3)
		dc.Fill()
	}

	return dc.SavePNG(filename)
}

func minMax(vals []float64) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if v < min { min = v }
		if v > max { max = v }
	}
	return min, max
}

func gammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}
