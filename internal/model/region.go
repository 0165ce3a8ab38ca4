package model

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidRegion is returned when a region fails construction-time
// validation against the reference paper bounds.
var ErrInvalidRegion = errors.New("invalid region")

// Region is an axis-aligned rectangle in reference-paper pixel space.
// Teachers draw these on the sample paper; they are never interpreted
// against a student sheet without scaling first.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is a pixel dimension pair of a decoded image.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks the region against the reference image bounds.
// Per-student sheets are scaled independently, so bounds are only
// enforced against the reference paper at template-save time.
func (r Region) Validate(bounds Size) error {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidRegion)
		}
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: non-positive dimensions %gx%g", ErrInvalidRegion, r.Width, r.Height)
	}
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("%w: negative origin (%g,%g)", ErrInvalidRegion, r.X, r.Y)
	}
	if r.X+r.Width > float64(bounds.Width) || r.Y+r.Height > float64(bounds.Height) {
		return fmt.Errorf("%w: extends outside reference bounds %dx%d", ErrInvalidRegion, bounds.Width, bounds.Height)
	}
	return nil
}

// Scale maps the region from one image's pixel space into another's.
// Horizontal and vertical factors are applied independently: scan
// cropping means a student sheet rarely preserves the reference aspect
// ratio. Each coordinate is rounded to the nearest whole pixel.
func (r Region) Scale(from, to Size) Region {
	sx := float64(to.Width) / float64(from.Width)
	sy := float64(to.Height) / float64(from.Height)
	return Region{
		X:      math.Round(r.X * sx),
		Y:      math.Round(r.Y * sy),
		Width:  math.Round(r.Width * sx),
		Height: math.Round(r.Height * sy),
	}
}

// Rect converts the region to an image.Rectangle for cropping.
func (r Region) Rect() image.Rectangle {
	x, y := int(r.X), int(r.Y)
	return image.Rect(x, y, x+int(r.Width), y+int(r.Height))
}
