package cropview

import (
	"fmt"

	"github.com/rs/zerolog"

	"avatarcrop/geom"
)

// Action is what a pointer gesture does to the region.
type Action uint8

const (
	ActionNone Action = iota
	ActionMove
	ActionResize
	// ActionNew is a drag that started outside the region. It is tracked
	// but does not create a region.
	ActionNew
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionMove:
		return "move"
	case ActionResize:
		return "resize"
	case ActionNew:
		return "new"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	for _, candidate := range []Action{ActionNone, ActionMove, ActionResize, ActionNew} {
		if candidate.String() == string(text) {
			*a = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", text)
}

// Cursor is the pointer shape hinted to the renderer.
type Cursor string

const (
	CursorDefault    Cursor = "default"
	CursorMove       Cursor = "move"
	CursorResizeNESW Cursor = "nesw-resize"
	CursorResizeNWSE Cursor = "nwse-resize"
)

// UpdateListener is called with the current crop area after every change
// the renderer has to pick up.
type UpdateListener func(area Shape)

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger gesture and validation events go to.
func WithLogger(logger zerolog.Logger) Option {
	return func(v *View) { v.logger = logger }
}

// WithDocument ends the view's gestures on every release d broadcasts.
func WithDocument(d *Document) Option {
	return func(v *View) { v.document = d }
}

// View owns a crop region over a surface and turns pointer input into
// region moves and resizes. A View is not safe for concurrent use; pointer
// events are expected one at a time, in down, move, up order.
type View struct {
	surface *Surface
	region  *Region

	action       Action
	mouseOrigin  geom.Point
	resizeAnchor geom.Point
	resizeOffset geom.Point
	cursor       Cursor

	flipH, flipV bool

	logger      zerolog.Logger
	document    *Document
	unsubscribe func()
	listeners   []UpdateListener
}

// NewView returns a view over surface with a region reset to the surface's
// bounds.
func NewView(surface *Surface, opts ...Option) *View {
	v := &View{
		surface: surface,
		cursor:  CursorDefault,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.region = NewRegion(surface)
	v.region.Reset()
	v.region.SaveOrigin()
	if v.document != nil {
		v.unsubscribe = v.document.Subscribe(v.PointerUp)
	}
	return v
}

// Close detaches the view from its document.
func (v *View) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// OnUpdate registers a listener for crop area changes.
func (v *View) OnUpdate(l UpdateListener) {
	v.listeners = append(v.listeners, l)
}

func (v *View) Surface() *Surface { return v.surface }
func (v *View) Region() *Region   { return v.region }
func (v *View) Action() Action    { return v.action }
func (v *View) Cursor() Cursor    { return v.cursor }

// CropArea returns a copy of the region's shape.
func (v *View) CropArea() Shape {
	return v.region.Shape()
}

// Flipped reports which mirror operations are in effect.
func (v *View) Flipped() (horizontal, vertical bool) {
	return v.flipH, v.flipV
}

// PointerDown starts a gesture at (x, y).
func (v *View) PointerDown(x, y float64) {
	p := geom.Pt(x, y)
	v.action = v.mouseAction(p)
	v.mouseOrigin = p
	v.region.SaveOrigin()

	quadrant := v.anchorFor(p)
	v.resizeOffset = v.region.Rect().PointAt(quadrant).Sub(p)

	v.logger.Debug().
		Stringer("action", v.action).
		Stringer("anchor", quadrant).
		Float64("x", x).
		Float64("y", y).
		Msg("gesture started")
}

// PointerMove applies the current gesture for a pointer at (x, y). Outside
// a gesture it only updates the cursor hint.
func (v *View) PointerMove(x, y float64) {
	p := geom.Pt(x, y)

	action := v.action
	if action == ActionNone {
		action = v.mouseAction(p)
	}
	v.cursor = v.cursorFor(action, p)

	switch v.action {
	case ActionNone:
		return
	case ActionMove:
		d := p.Sub(v.mouseOrigin)
		v.region.SetPosition(v.region.Origin().Position.Add(d))
		v.validate()
		v.mouseOrigin = p
		v.region.SaveOrigin()
	case ActionResize:
		v.performResize(p)
	}

	v.region.Round()
	v.emit()
}

// PointerUp ends the current gesture. Without one it does nothing.
func (v *View) PointerUp() {
	if v.action == ActionNone {
		return
	}
	v.logger.Debug().Stringer("action", v.action).Msg("gesture ended")
	v.action = ActionNone
	v.emit()
}

// performResize pins the corner opposite to the pointer's quadrant and
// drags the other one towards the pointer, corrected by the offset the
// pointer had from the handle when the gesture started.
func (v *View) performResize(p geom.Point) {
	quadrant := v.anchorFor(p)
	anchor := quadrant.Opposite()
	v.resizeAnchor = v.region.Rect().PointAt(anchor).Sub(v.resizeOffset)

	target := geom.Rectangle{Position: v.resizeAnchor}
	target.SetPointAt(quadrant, p)
	v.region.FitInsideGreedy(target, anchor)
	v.validate()
}

// mouseAction classifies a pointer position. Inside the region the ring
// beyond the horizontal radius is the resize handle.
func (v *View) mouseAction(p geom.Point) Action {
	rect := v.region.Rect()
	if !rect.ContainsPoint(p) {
		return ActionNew
	}
	if rect.Center().DistanceTo(p) >= v.region.Radius().X {
		return ActionResize
	}
	return ActionMove
}

// anchorFor returns the corner of the region's quadrant containing p.
// Points on a center line count as left of it or above it.
func (v *View) anchorFor(p geom.Point) geom.Anchor {
	rect := v.region.Rect()
	if p.X > rect.CX() {
		if p.Y > rect.CY() {
			return geom.SE
		}
		return geom.NE
	}
	if p.Y > rect.CY() {
		return geom.SW
	}
	return geom.NW
}

func (v *View) cursorFor(action Action, p geom.Point) Cursor {
	switch action {
	case ActionMove:
		return CursorMove
	case ActionResize:
		rect := v.region.Rect()
		left, above := p.X < rect.CX(), p.Y < rect.CY()
		if left != above {
			return CursorResizeNESW
		}
		return CursorResizeNWSE
	default:
		return CursorDefault
	}
}

// LoadImage switches the surface to a new image and resets the region.
func (v *View) LoadImage(width, height float64) {
	v.surface.SetImageSize(width, height)
	v.action = ActionNone
	v.flipH, v.flipV = false, false
	v.region.Reset()
	v.validate()
	v.region.SaveOrigin()

	v.logger.Debug().
		Float64("width", width).
		Float64("height", height).
		Stringer("area", v.region.Rect()).
		Msg("image loaded")
	v.emit()
}

// Rotate sets the clockwise rotation of the image and pulls the region back
// inside the new bounds.
func (v *View) Rotate(deg float64) {
	v.surface.Rotate(deg)
	v.validate()
	v.logger.Debug().
		Float64("degrees", deg).
		Float64("outer_width", v.surface.OuterWidth()).
		Float64("outer_height", v.surface.OuterHeight()).
		Msg("rotated")
	v.emit()
}

// FlipHorizontal mirrors the image left to right. The rotation is negated
// and the region follows the mirrored content.
func (v *View) FlipHorizontal() {
	v.flip(true)
}

// FlipVertical mirrors the image top to bottom.
func (v *View) FlipVertical() {
	v.flip(false)
}

func (v *View) flip(horizontal bool) {
	v.surface.Rotate(-v.surface.Rotation())
	v.validate()
	v.region.Mirror(horizontal)
	v.validate()
	if horizontal {
		v.flipH = !v.flipH
	} else {
		v.flipV = !v.flipV
	}
	v.emit()
}

func (v *View) Zoom(factor float64) {
	v.surface.Zoom(factor)
	v.emit()
}

func (v *View) ZoomIn() {
	v.surface.ZoomIn()
	v.emit()
}

func (v *View) ZoomOut() {
	v.surface.ZoomOut()
	v.emit()
}

// ZoomFit fits the surface into a container of the given size.
func (v *View) ZoomFit(containerWidth, containerHeight float64) {
	v.surface.ZoomFit(containerWidth, containerHeight)
	v.emit()
}

// Validate re-clamps the region after an external geometry change.
func (v *View) Validate() Correction {
	c := v.validate()
	v.emit()
	return c
}

func (v *View) validate() Correction {
	c := v.region.Validate()
	if c != CorrectionNone {
		v.logger.Debug().
			Stringer("correction", c).
			Stringer("area", v.region.Rect()).
			Msg("region clamped")
	}
	return c
}

func (v *View) emit() {
	area := v.region.Shape()
	for _, l := range v.listeners {
		l(area)
	}
}
