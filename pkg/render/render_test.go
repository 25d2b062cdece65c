package render

import(
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"galprof/pkg/photom"
)

func blobGrid(w, h int) *photom.Grid {
	g := photom.NewGrid(w, h)
	cx, cy := float64(w)/2, float64(h)/2
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			g.Set(x, y, 500*math.Exp(-(dx*dx+dy*dy)/50))
		}
	}
	return g
}

func testProfile() photom.Profile {
	return photom.Profile{
		{Sma: 3.0, Intens: 400, Eps: 0.1, PA: 0.2, RMS: 2.1, Iters: 4, Valid: true},
		{Sma: 3.3, Intens: 310, Eps: 0.1, PA: 0.2, RMS: 1.8, Iters: 3, Valid: true},
		{Sma: 3.6, Intens: 0, Eps: 0.4, PA: 0.9, RMS: 99, Iters: 30, Valid: false},
		{Sma: 4.0, Intens: 180, Eps: 0.1, PA: 0.2, RMS: 1.2, Iters: 5, Valid: true},
	}
}

func TestWriteGrayPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := WriteGrayPNG(blobGrid(40, 30), "test frame", path); err != nil {
		t.Fatalf("WriteGrayPNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not decodable PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("PNG is %dx%d, want 40x30", b.Dx(), b.Dy())
	}
}

func TestWriteGrayPNGFlatGrid(t *testing.T) {
	// A span-zero image must not divide by zero.
	g := photom.NewGrid(8, 8)
	path := filepath.Join(t.TempDir(), "flat.png")
	if err := WriteGrayPNG(g, "flat", path); err != nil {
		t.Fatalf("WriteGrayPNG on flat grid: %v", err)
	}
}

func TestWriteGrayTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tif")
	if err := WriteGrayTIFF(blobGrid(32, 24), path); err != nil {
		t.Fatalf("WriteGrayTIFF: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatalf("output is not decodable TIFF: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("TIFF is %dx%d, want 32x24", b.Dx(), b.Dy())
	}
}

func TestWriteProfilePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.png")
	if err := WriteProfilePlot(testProfile(), "NGC test", path); err != nil {
		t.Fatalf("WriteProfilePlot: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("plot is not decodable PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != plotW || b.Dy() != plotH {
		t.Errorf("plot is %dx%d, want %dx%d", b.Dx(), b.Dy(), plotW, plotH)
	}
}

func TestWriteProfilePlotEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := WriteProfilePlot(photom.Profile{}, "nothing", path); err != nil {
		t.Fatalf("WriteProfilePlot on empty profile: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("empty-profile plot not written: %v", err)
	}
}

func TestProfileTable(t *testing.T) {
	out := ProfileTable(testProfile())

	// go-pretty's StyleLight renders headers upcased.
	for _, want := range []string{"SMA", "INTENS", "EPS", "PA DEG", "3.00", "400"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	// One row per ring plus header and rules.
	if got := strings.Count(out, "ok"); got != 3 {
		t.Errorf("table marks %d rings ok, want 3:\n%s", got, out)
	}
}

func TestProfileTableEmpty(t *testing.T) {
	out := ProfileTable(photom.Profile{})
	if !strings.Contains(out, "SMA") {
		t.Errorf("empty table lost its header:\n%s", out)
	}
}
