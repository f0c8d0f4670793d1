package geom

import (
	"fmt"
	"math"
)

// Rectangle is an axis-aligned rectangle described by its top-left corner
// and its size. Regions keep Size non-negative; Between and Normalize are
// the ways to get there from arbitrary input.
type Rectangle struct {
	Position Point `json:"position" yaml:"position"`
	Size     Point `json:"size" yaml:"size"`
}

// Rect returns the rectangle at (x, y) with the given width and height.
func Rect(x, y, w, h float64) Rectangle {
	return Rectangle{Position: Pt(x, y), Size: Pt(w, h)}
}

// Between returns the normalized rectangle spanned by p1 and p2, whichever
// corners they are.
func Between(p1, p2 Point) Rectangle {
	return Rectangle{Position: p1.Min(p2), Size: p1.Sub(p2).Abs()}
}

func (r Rectangle) X() float64      { return r.Position.X }
func (r Rectangle) Y() float64      { return r.Position.Y }
func (r Rectangle) Width() float64  { return r.Size.X }
func (r Rectangle) Height() float64 { return r.Size.Y }
func (r Rectangle) Right() float64  { return r.Position.X + r.Size.X }
func (r Rectangle) Bottom() float64 { return r.Position.Y + r.Size.Y }
func (r Rectangle) CX() float64     { return r.Position.X + r.Size.X/2 }
func (r Rectangle) CY() float64     { return r.Position.Y + r.Size.Y/2 }

// Center returns the midpoint of the rectangle.
func (r Rectangle) Center() Point {
	return Pt(r.CX(), r.CY())
}

// The setters below translate the rectangle; its size is preserved.

func (r *Rectangle) SetX(x float64)      { r.Position.X = x }
func (r *Rectangle) SetY(y float64)      { r.Position.Y = y }
func (r *Rectangle) SetRight(v float64)  { r.Position.X = v - r.Size.X }
func (r *Rectangle) SetBottom(v float64) { r.Position.Y = v - r.Size.Y }
func (r *Rectangle) SetCX(v float64)     { r.Position.X = v - r.Size.X/2 }
func (r *Rectangle) SetCY(v float64)     { r.Position.Y = v - r.Size.Y/2 }

// ContainsPoint reports whether p lies inside r, edges included.
func (r Rectangle) ContainsPoint(p Point) bool {
	return p.X >= r.X() && p.X <= r.Right() && p.Y >= r.Y() && p.Y <= r.Bottom()
}

// PointAt returns the location of anchor a.
func (r Rectangle) PointAt(a Anchor) Point {
	u := a.unit()
	return Pt(r.X()+u.X*r.Width(), r.Y()+u.Y*r.Height())
}

// SetPointAt moves anchor a to p while the opposite anchor stays where it
// is. Edge anchors only move their own edge. The result is normalized, so
// dragging an anchor past its opposite flips the rectangle instead of
// producing a negative size.
func (r *Rectangle) SetPointAt(a Anchor, p Point) {
	tl, br := r.Position, Pt(r.Right(), r.Bottom())
	switch a {
	case NW, NE, SE, SW:
		*r = Between(p, r.PointAt(a.Opposite()))
		return
	case N:
		tl.Y = p.Y
	case S:
		br.Y = p.Y
	case E:
		br.X = p.X
	case W:
		tl.X = p.X
	}
	*r = Between(tl, br)
}

// SetWidthKeepAR sets the width and scales the height by the same ratio.
// A zero width carries no ratio, in which case only the width changes.
func (r *Rectangle) SetWidthKeepAR(w float64) {
	if r.Size.X != 0 {
		r.Size.Y *= w / r.Size.X
	}
	r.Size.X = w
}

// SetHeightKeepAR sets the height and scales the width by the same ratio.
func (r *Rectangle) SetHeightKeepAR(h float64) {
	if r.Size.Y != 0 {
		r.Size.X *= h / r.Size.Y
	}
	r.Size.Y = h
}

// FitInsideGreedy resizes r towards target's size while r's anchor point a
// stays pinned. Each axis may grow up to the target size unless it would
// leave bounds, in which case it stops at the bound.
func (r *Rectangle) FitInsideGreedy(target Rectangle, a Anchor, bounds Rectangle) {
	pin := r.PointAt(a)
	u := a.unit()

	w := math.Min(math.Abs(target.Width()), room(pin.X, bounds.X(), bounds.Right(), u.X))
	h := math.Min(math.Abs(target.Height()), room(pin.Y, bounds.Y(), bounds.Bottom(), u.Y))
	w, h = math.Max(w, 0), math.Max(h, 0)

	r.Size = Pt(w, h)
	r.Position = Pt(pin.X-u.X*w, pin.Y-u.Y*h)
}

// room is the largest extent along one axis that keeps an edge pinned at v
// inside [lo, hi]. f is the pin's fractional position along that axis:
// 0 grows towards hi, 1 towards lo and 0.5 grows both ways at once.
func room(v, lo, hi, f float64) float64 {
	switch f {
	case 0:
		return hi - v
	case 1:
		return v - lo
	}
	return 2 * math.Min(v-lo, hi-v)
}

// Normalize flips negative sizes so that Size is non-negative while the
// covered area stays the same. Axes that are already non-negative are left
// untouched.
func (r *Rectangle) Normalize() {
	if r.Size.X < 0 {
		r.Position.X += r.Size.X
		r.Size.X = -r.Size.X
	}
	if r.Size.Y < 0 {
		r.Position.Y += r.Size.Y
		r.Size.Y = -r.Size.Y
	}
}

// Round snaps the edges to whole pixels and derives the size from them, so
// an integral bound that contained r still contains it afterwards.
func (r *Rectangle) Round() {
	tl := r.Position.Round()
	br := Pt(r.Right(), r.Bottom()).Round()
	r.Position = tl
	r.Size = br.Sub(tl)
}

func (r Rectangle) String() string {
	return fmt.Sprintf("rect(x=%g,y=%g,w=%g,h=%g)", r.X(), r.Y(), r.Width(), r.Height())
}
