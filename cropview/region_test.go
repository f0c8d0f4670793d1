package cropview

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatarcrop/geom"
)

type fixedBounds struct{ w, h float64 }

func (b fixedBounds) OuterWidth() float64  { return b.w }
func (b fixedBounds) OuterHeight() float64 { return b.h }

func assertContained(t *testing.T, r geom.Rectangle, w, h float64) {
	t.Helper()
	assert.GreaterOrEqual(t, r.X(), 0.0, "x: %s", r)
	assert.GreaterOrEqual(t, r.Y(), 0.0, "y: %s", r)
	assert.LessOrEqual(t, r.Right(), w, "right: %s", r)
	assert.LessOrEqual(t, r.Bottom(), h, "bottom: %s", r)
	assert.GreaterOrEqual(t, r.Width(), 0.0)
	assert.GreaterOrEqual(t, r.Height(), 0.0)
}

func TestRegion_Reset(t *testing.T) {
	r := NewRegion(fixedBounds{800, 400})
	r.SetRect(geom.Rect(30, 40, 10, 10))
	r.Reset()

	assert.Equal(t, geom.Pt(0, 0), r.Position())
	assert.Equal(t, geom.Square(200), r.Diameter())
	assert.Equal(t, geom.Square(100), r.Radius())
}

func TestRegion_DiameterAndRadius(t *testing.T) {
	r := NewRegion(fixedBounds{100, 100})
	r.SetRadius(geom.Pt(10, 5))
	assert.Equal(t, geom.Pt(20, 10), r.Diameter())
	r.SetDiameter(geom.Pt(8, 8))
	assert.Equal(t, geom.Pt(4, 4), r.Radius())
}

func TestRegion_OriginSnapshotIsDetached(t *testing.T) {
	r := NewRegion(fixedBounds{100, 100})
	r.SetRect(geom.Rect(10, 10, 20, 20))
	r.SaveOrigin()
	r.SetPosition(geom.Pt(50, 50))

	assert.Equal(t, Shape{Position: geom.Pt(10, 10), Diameter: geom.Square(20)}, r.Origin())
}

func TestRegion_ValidateShrinksWidthKeepingAspect(t *testing.T) {
	r := NewRegion(fixedBounds{800, 400})
	r.SetRect(geom.Rect(0, 0, 900, 300))

	c := r.Validate()

	assert.Equal(t, CorrectionWidth, c)
	assert.LessOrEqual(t, r.Rect().Width(), 800.0)
	assert.InDelta(t, 3.0, r.Rect().Width()/r.Rect().Height(), 1e-9)
}

func TestRegion_ValidateShrinksBeforeMoving(t *testing.T) {
	r := NewRegion(fixedBounds{800, 400})
	r.SetRect(geom.Rect(-50, 350, 900, 300))

	c := r.Validate()

	assert.Equal(t, CorrectionBottom, c, "last correction wins")
	assert.Equal(t, 800.0, r.Rect().Width())
	assert.InDelta(t, 3.0, r.Rect().Width()/r.Rect().Height(), 1e-9)
	assertContained(t, r.Rect(), 800, 400)
}

func TestRegion_ValidateCodes(t *testing.T) {
	tests := []struct {
		name string
		rect geom.Rectangle
		want Correction
	}{
		{"in bounds", geom.Rect(10, 10, 20, 20), CorrectionNone},
		{"too tall", geom.Rect(0, 0, 50, 150), CorrectionHeight},
		{"left of bounds", geom.Rect(-5, 10, 20, 20), CorrectionLeft},
		{"above bounds", geom.Rect(10, -5, 20, 20), CorrectionTop},
		{"below bounds", geom.Rect(10, 90, 20, 20), CorrectionBottom},
		{"right of bounds", geom.Rect(90, 10, 20, 20), CorrectionRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegion(fixedBounds{100, 100})
			r.SetRect(tt.rect)
			assert.Equal(t, tt.want, r.Validate())
			assertContained(t, r.Rect(), 100, 100)
		})
	}
}

func TestRegion_ValidateIsIdempotent(t *testing.T) {
	rects := []geom.Rectangle{
		geom.Rect(-50, 350, 900, 300),
		geom.Rect(700, -20, 300, 800),
		geom.Rect(10, 10, 20, 20),
		geom.Rect(30, 30, -20, -10),
	}
	for _, rect := range rects {
		r := NewRegion(fixedBounds{800, 400})
		r.SetRect(rect)
		r.Validate()
		once := r.Rect()

		assert.Equal(t, CorrectionNone, r.Validate(), rect.String())
		assert.Equal(t, once, r.Rect())
	}
}

func TestRegion_ValidLeavesFractionalRegionUntouched(t *testing.T) {
	rects := []geom.Rectangle{
		geom.Rect(0.1, 0.1, 0.2, 0.2),
		geom.Rect(12.3, 45.6, 78.9, 10.1),
		geom.Rect(0.7, 0.3, 333.3, 111.1),
	}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		rects = append(rects, geom.Rect(
			rng.Float64()*400, rng.Float64()*200,
			rng.Float64()*400, rng.Float64()*200,
		))
	}

	for _, rect := range rects {
		r := NewRegion(fixedBounds{800, 400})
		r.SetRect(rect)

		require.Equal(t, CorrectionNone, r.Validate(), rect.String())
		require.Equal(t, rect, r.Rect(), "valid region must not drift")
	}
}

func TestRegion_ValidateDegenerateInput(t *testing.T) {
	t.Run("negative bounds", func(t *testing.T) {
		r := NewRegion(fixedBounds{-10, -10})
		r.SetRect(geom.Rect(10, 10, 50, 50))
		r.Validate()
		assert.Equal(t, geom.Rectangle{}, r.Rect())
	})

	t.Run("nil bounds", func(t *testing.T) {
		r := NewRegion(nil)
		r.SetRect(geom.Rect(10, 10, 50, 50))
		r.Validate()
		assert.Equal(t, geom.Rectangle{}, r.Rect())
	})

	t.Run("non-finite region", func(t *testing.T) {
		r := NewRegion(fixedBounds{100, 100})
		r.SetRect(geom.Rect(math.NaN(), 10, math.Inf(1), 5))
		r.Validate()
		require.True(t, r.Rect().Position.Finite())
		require.True(t, r.Rect().Size.Finite())
		assertContained(t, r.Rect(), 100, 100)
	})

	t.Run("negative size", func(t *testing.T) {
		r := NewRegion(fixedBounds{100, 100})
		r.SetRect(geom.Rect(30, 30, -20, -10))
		r.Validate()
		assert.Equal(t, geom.Rect(10, 20, 20, 10), r.Rect())
	})
}

func TestRegion_Mirror(t *testing.T) {
	r := NewRegion(fixedBounds{200, 100})
	r.SetRect(geom.Rect(10, 10, 40, 40))

	r.Mirror(true)
	assert.Equal(t, geom.Rect(150, 10, 40, 40), r.Rect())

	r.Mirror(false)
	assert.Equal(t, geom.Rect(150, 50, 40, 40), r.Rect())
}

func TestCorrection_String(t *testing.T) {
	assert.Equal(t, "none", CorrectionNone.String())
	assert.Equal(t, "right", CorrectionRight.String())
	assert.Equal(t, "unknown", Correction(42).String())
}
