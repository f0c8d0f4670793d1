package cropview

import (
	"math"

	"avatarcrop/geom"
)

// Bounds exposes the outer dimensions a region must stay within. The
// region queries it on every validation, so bound changes take effect on
// the next step of a gesture.
type Bounds interface {
	OuterWidth() float64
	OuterHeight() float64
}

const zoomStep = 1.1

// Surface is the display surface of a loaded image. It tracks rotation and
// zoom; only rotation changes the outer dimensions, zoom is a screen
// transform.
type Surface struct {
	width, height float64
	rotation      float64
	zoom          float64
	zoomFitted    bool
	container     geom.Point
}

// NewSurface returns a surface for an image of the given size.
func NewSurface(width, height float64) *Surface {
	s := &Surface{zoom: 1}
	s.SetImageSize(width, height)
	return s
}

// SetImageSize replaces the image and clears the rotation.
func (s *Surface) SetImageSize(width, height float64) {
	s.width = math.Max(width, 0)
	s.height = math.Max(height, 0)
	s.rotation = 0
	s.refit()
}

// ImageSize returns the size of the image itself, ignoring rotation.
func (s *Surface) ImageSize() (float64, float64) {
	return s.width, s.height
}

// Rotate sets the clockwise rotation in degrees.
func (s *Surface) Rotate(deg float64) {
	s.rotation = deg
	s.refit()
}

func (s *Surface) Rotation() float64 {
	return s.rotation
}

func (s *Surface) OuterWidth() float64 {
	w, _ := s.outer()
	return w
}

func (s *Surface) OuterHeight() float64 {
	_, h := s.outer()
	return h
}

// OuterRect returns the outer bounds anchored at the origin.
func (s *Surface) OuterRect() geom.Rectangle {
	w, h := s.outer()
	return geom.Rect(0, 0, w, h)
}

// outer returns the bounding box of the rotated image truncated to whole
// pixels, the way a canvas sized to it would be.
func (s *Surface) outer() (float64, float64) {
	rad := s.rotation * math.Pi / 180
	c, n := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	w := s.width*c + s.height*n
	h := s.width*n + s.height*c
	return math.Floor(w + 1e-9), math.Floor(h + 1e-9)
}

func (s *Surface) ZoomFactor() float64 {
	return s.zoom
}

// ZoomFitted reports whether the zoom follows the container size.
func (s *Surface) ZoomFitted() bool {
	return s.zoomFitted
}

// Zoom sets the zoom factor. Non-positive factors are ignored.
func (s *Surface) Zoom(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	s.zoom = factor
}

func (s *Surface) ZoomIn() {
	s.zoomFitted = false
	s.Zoom(s.zoom * zoomStep)
}

func (s *Surface) ZoomOut() {
	s.zoomFitted = false
	s.Zoom(s.zoom / zoomStep)
}

// ZoomFit scales the surface so its outer bounds fit a container of the
// given size, and keeps doing so after rotations.
func (s *Surface) ZoomFit(containerWidth, containerHeight float64) {
	s.container = geom.Pt(containerWidth, containerHeight)
	s.zoomFitted = true
	s.refit()
}

func (s *Surface) refit() {
	if !s.zoomFitted {
		return
	}
	w, h := s.outer()
	if w <= 0 || h <= 0 || s.container.X <= 0 || s.container.Y <= 0 {
		return
	}
	s.Zoom(math.Min(s.container.X/w, s.container.Y/h))
}
