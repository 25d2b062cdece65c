package photom

// Calibrate applies the elementwise bias/flat correction to a raw
// frame: (frame - bias) / flat. Either correction grid may be nil to
// skip that step. Flat pixels at exactly zero are dead; the corrected
// pixel is zeroed rather than blown up to infinity.
func Calibrate(frame, bias, flat *Grid) (*Grid, error) {
	out := frame.Copy()

	if bias != nil {
		if bias.Dx() != out.Dx() || bias.Dy() != out.Dy() {
			return nil, ShapeMismatchError{Frame: "bias", WantW: out.Dx(), WantH: out.Dy(), GotW: bias.Dx(), GotH: bias.Dy()}
		}
		for y:=0; y<out.Dy(); y++ {
			for x:=0; x<out.Dx(); x++ {
				out.Set(x, y, out.Get(x,y) - bias.Get(x,y))
			}
		}
	}

	if flat != nil {
		if flat.Dx() != out.Dx() || flat.Dy() != out.Dy() {
			return nil, ShapeMismatchError{Frame: "flat", WantW: out.Dx(), WantH: out.Dy(), GotW: flat.Dx(), GotH: flat.Dy()}
		}
		for y:=0; y<out.Dy(); y++ {
			for x:=0; x<out.Dx(); x++ {
				if f := flat.Get(x,y); f != 0 {
					out.Set(x, y, out.Get(x,y) / f)
				} else {
					out.Set(x, y, 0)
				}
			}
		}
	}

	return out, nil
}
