package cropview

import (
	"math"

	"avatarcrop/geom"
)

// Shape is a detached copy of a region's position and diameter.
type Shape struct {
	Position geom.Point `json:"position" yaml:"position"`
	Diameter geom.Point `json:"diameter" yaml:"diameter"`
}

// Rect returns the shape as a rectangle.
func (s Shape) Rect() geom.Rectangle {
	return geom.Rectangle{Position: s.Position, Size: s.Diameter}
}

// Correction identifies the last adjustment Validate made to a region.
type Correction int

const (
	CorrectionNone Correction = iota
	CorrectionWidth
	CorrectionHeight
	CorrectionLeft
	CorrectionTop
	CorrectionBottom
	CorrectionRight
)

func (c Correction) String() string {
	switch c {
	case CorrectionNone:
		return "none"
	case CorrectionWidth:
		return "width"
	case CorrectionHeight:
		return "height"
	case CorrectionLeft:
		return "left"
	case CorrectionTop:
		return "top"
	case CorrectionBottom:
		return "bottom"
	case CorrectionRight:
		return "right"
	default:
		return "unknown"
	}
}

// Region is the crop area. It is drawn as a circle or a square but its
// geometry is the bounding rectangle. The origin snapshot is the baseline
// drag deltas are computed against.
type Region struct {
	rect   geom.Rectangle
	bounds Bounds
	origin Shape
}

// NewRegion returns an empty region kept inside b.
func NewRegion(b Bounds) *Region {
	r := &Region{bounds: b}
	r.SaveOrigin()
	return r
}

func (r *Region) Rect() geom.Rectangle {
	return r.rect
}

func (r *Region) SetRect(rect geom.Rectangle) {
	r.rect = rect
}

func (r *Region) Position() geom.Point {
	return r.rect.Position
}

func (r *Region) SetPosition(p geom.Point) {
	r.rect.Position = p
}

func (r *Region) Diameter() geom.Point {
	return r.rect.Size
}

func (r *Region) SetDiameter(d geom.Point) {
	r.rect.Size = d
}

func (r *Region) Radius() geom.Point {
	return r.rect.Size.Mul(0.5)
}

func (r *Region) SetRadius(radius geom.Point) {
	r.rect.Size = radius.Mul(2)
}

// Shape returns a copy of the current position and diameter.
func (r *Region) Shape() Shape {
	return Shape{Position: r.rect.Position, Diameter: r.rect.Size}
}

// SaveOrigin snapshots the current shape.
func (r *Region) SaveOrigin() {
	r.origin = r.Shape()
}

// Origin returns the last snapshot taken by SaveOrigin.
func (r *Region) Origin() Shape {
	return r.origin
}

// Reset places a square region at the origin whose side is half the
// smaller outer dimension.
func (r *Region) Reset() {
	w, h := r.outer()
	r.rect = geom.Rectangle{Size: geom.Square(math.Min(w, h) / 2)}
}

// Validate pulls the region back inside the outer bounds. Oversized regions
// are shrunk first, keeping their aspect ratio, and then moved. It returns
// the last correction applied.
func (r *Region) Validate() Correction {
	w, h := r.outer()
	r.sanitize()

	ret := CorrectionNone
	if r.rect.Width() > w {
		r.rect.SetWidthKeepAR(w)
		ret = CorrectionWidth
	}
	if r.rect.Height() > h {
		r.rect.SetHeightKeepAR(h)
		ret = CorrectionHeight
	}
	if r.rect.X() < 0 {
		r.rect.SetX(0)
		ret = CorrectionLeft
	}
	if r.rect.Y() < 0 {
		r.rect.SetY(0)
		ret = CorrectionTop
	}
	if r.rect.Bottom() > h {
		r.rect.SetBottom(h)
		ret = CorrectionBottom
	}
	if r.rect.Right() > w {
		r.rect.SetRight(w)
		ret = CorrectionRight
	}
	return ret
}

// FitInsideGreedy resizes the region towards target with anchor a pinned,
// stopping at the outer bounds.
func (r *Region) FitInsideGreedy(target geom.Rectangle, a geom.Anchor) {
	w, h := r.outer()
	r.rect.FitInsideGreedy(target, a, geom.Rect(0, 0, w, h))
}

// Round snaps the region to whole pixels.
func (r *Region) Round() {
	r.rect.Round()
}

// Mirror reflects the region's center across the vertical (horizontal
// true) or horizontal axis of the outer bounds.
func (r *Region) Mirror(horizontal bool) {
	w, h := r.outer()
	if horizontal {
		r.rect.SetCX(w - r.rect.CX())
	} else {
		r.rect.SetCY(h - r.rect.CY())
	}
}

// sanitize replaces non-finite values with zero and flips negative sizes.
func (r *Region) sanitize() {
	if !r.rect.Position.Finite() {
		r.rect.Position = geom.Point{}
	}
	if !r.rect.Size.Finite() {
		r.rect.Size = geom.Point{}
	}
	if r.rect.Size.X < 0 || r.rect.Size.Y < 0 {
		r.rect.Normalize()
	}
}

// outer reads the current bounds. Negative or non-finite values count as
// zero, which collapses the region onto the origin.
func (r *Region) outer() (float64, float64) {
	if r.bounds == nil {
		return 0, 0
	}
	return nonNegative(r.bounds.OuterWidth()), nonNegative(r.bounds.OuterHeight())
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
