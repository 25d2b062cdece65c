package photom

import "fmt"

// The pipeline's typed errors. Callers pick them out with errors.As;
// everything else gets wrapped with plain fmt.Errorf context.

// EmptySelectionError means no frames matched the selection predicate.
// Expected whenever an observer asks for a band/type combination that
// wasn't shot; retry with a different predicate.
type EmptySelectionError struct {
	Band      string
	ImageType string
}

func (e EmptySelectionError)Error() string {
	if e.Band == "" && e.ImageType == "" {
		return "empty frame selection"
	}
	return fmt.Sprintf("no frames selected for band %q, type %q", e.Band, e.ImageType)
}

// ShapeMismatchError means the selected frames don't all share the
// same pixel dimensions. That's an upstream data problem, not
// something worth retrying.
type ShapeMismatchError struct {
	Frame        string
	WantW, WantH int
	GotW, GotH   int
}

func (e ShapeMismatchError)Error() string {
	return fmt.Sprintf("frame %q is %dx%d, want %dx%d", e.Frame, e.GotW, e.GotH, e.WantW, e.WantH)
}

// DegenerateImageError means an estimate is undefined on this image
// (e.g. a brightness-weighted centroid over zero total intensity).
// The caller decides the fallback; the pipeline never hands back NaN.
type DegenerateImageError struct {
	Reason string
}

func (e DegenerateImageError)Error() string {
	return fmt.Sprintf("degenerate image: %s", e.Reason)
}
