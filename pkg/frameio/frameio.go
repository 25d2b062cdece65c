// Package frameio reads raw astronomical frames from FITS files: the
// pixel array as a photom.Grid, and the header cards through a typed
// access contract. It never writes frame files.
package frameio

import(
	"fmt"
	"os"

	"github.com/siravan/fits"

	"galprof/pkg/photom"
)

// MissingHeaderError means a required header card isn't in the file.
// Fallback policy belongs to the caller; nobody silently gets a nil.
type MissingHeaderError struct {
	Key  string
	File string
}

func (e MissingHeaderError)Error() string {
	return fmt.Sprintf("header card %q missing from %s", e.Key, e.File)
}

// A Header is the card set of a frame's primary HDU. Values are
// whatever the FITS parser produced (string, int, float64, bool);
// the typed accessors below sort that out.
type Header struct {
	File  string
	cards map[string]interface{}
}

func (h Header)Has(key string) bool {
	v, exists := h.cards[key]
	return exists && v != nil
}

// Str returns a string-valued card, or MissingHeaderError.
func (h Header)Str(key string) (string, error) {
	v, exists := h.cards[key]
	if !exists || v == nil {
		return "", MissingHeaderError{Key: key, File: h.File}
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("header card %q in %s is %T, not a string", key, h.File, v)
	}
	return s, nil
}

// StrDefault is for free-text cards where absence is routine.
func (h Header)StrDefault(key, def string) string {
	if s, err := h.Str(key); err == nil {
		return s
	}
	return def
}

// Float returns a numeric card as float64, or MissingHeaderError.
// FITS integer cards are widened.
func (h Header)Float(key string) (float64, error) {
	v, exists := h.cards[key]
	if !exists || v == nil {
		return 0, MissingHeaderError{Key: key, File: h.File}
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("header card %q in %s is %T, not numeric", key, h.File, v)
}

// ReadHeader reads the primary HDU's cards.
func ReadHeader(filename string) (Header, error) {
	units, err := openUnits(filename)
	if err != nil {
		return Header{}, err
	}
	return Header{File: filename, cards: units[0].Keys}, nil
}

// ReadPixelGrid reads the first 2-D image HDU into a Grid, applying
// BZERO/BSCALE when the header carries them (the FITS trick for
// storing unsigned camera counts in signed integers).
func ReadPixelGrid(filename string) (*photom.Grid, error) {
	units, err := openUnits(filename)
	if err != nil {
		return nil, err
	}

	var unit *fits.Unit
	for _, u := range units {
		if len(u.Naxis) == 2 && u.FloatAt != nil {
			unit = u
			break
		}
	}
	if unit == nil {
		return nil, fmt.Errorf("%s: no 2-D image HDU", filename)
	}

	hdr := Header{File: filename, cards: unit.Keys}
	bzero, _ := hdr.Float("BZERO")
	bscale, err := hdr.Float("BSCALE")
	if err != nil {
		bscale = 1.0
	}

	w, h := unit.Naxis[0], unit.Naxis[1]
	g := photom.NewGrid(w, h)
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			g.Set(x, y, bzero + bscale*unit.FloatAt(x, y))
		}
	}
	return g, nil
}

func openUnits(filename string) ([]*fits.Unit, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	units, err := fits.Open(reader)
	if err != nil {
		return nil, fmt.Errorf("fits parsing '%s': %v", filename, err)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("fits parsing '%s': no HDUs", filename)
	}
	return units, nil
}
