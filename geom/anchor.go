package geom

import "fmt"

// Anchor names one of the eight reference points of a rectangle: the four
// corners and the four edge midpoints.
type Anchor uint8

const (
	NW Anchor = iota
	N
	NE
	E
	SE
	S
	SW
	W
)

var anchorNames = [...]string{"nw", "n", "ne", "e", "se", "s", "sw", "w"}

func (a Anchor) String() string {
	if int(a) < len(anchorNames) {
		return anchorNames[a]
	}
	return fmt.Sprintf("anchor(%d)", uint8(a))
}

// ParseAnchor parses the lowercase compass name of an anchor.
func ParseAnchor(s string) (Anchor, error) {
	for i, name := range anchorNames {
		if name == s {
			return Anchor(i), nil
		}
	}
	return 0, fmt.Errorf("unknown anchor %q", s)
}

// Opposite returns the anchor mirrored through the rectangle's center.
func (a Anchor) Opposite() Anchor {
	return (a + 4) % 8
}

// unit returns the anchor's position within a unit square, (0,0) being the
// top-left corner.
func (a Anchor) unit() Point {
	switch a {
	case NW:
		return Pt(0, 0)
	case N:
		return Pt(0.5, 0)
	case NE:
		return Pt(1, 0)
	case E:
		return Pt(1, 0.5)
	case SE:
		return Pt(1, 1)
	case S:
		return Pt(0.5, 1)
	case SW:
		return Pt(0, 1)
	case W:
		return Pt(0, 0.5)
	}
	return Pt(0, 0)
}

// MarshalText implements encoding.TextMarshaler.
func (a Anchor) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Anchor) UnmarshalText(text []byte) error {
	v, err := ParseAnchor(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
