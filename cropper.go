package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// ImagingCropper is an implementation of the Cropper interface
// using the disintegration/imaging library
type ImagingCropper struct{}

// Crop implements the Cropper interface using the imaging library.
// It reads an image from r, reproduces the displayed orientation (flips
// first, then the clockwise rotation), crops it according to the specified
// dimensions and writes the result to w in the given format.
func (c *ImagingCropper) Crop(ctx context.Context, r io.Reader, w io.Writer, crop Crop, format imaging.Format) error {
	// Decode the image from the reader
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	displayed := orient(src, crop)

	// Get the dimensions of the displayed image
	bounds := displayed.Bounds()
	imgWidth := bounds.Dx()
	imgHeight := bounds.Dy()

	// Convert relative crop coordinates to absolute pixel values
	x := bounds.Min.X + int(crop.X*float64(imgWidth))
	y := bounds.Min.Y + int(crop.Y*float64(imgHeight))
	width := int(crop.Width * float64(imgWidth))
	height := int(crop.Height * float64(imgHeight))

	// Ensure crop rectangle is valid and within image bounds
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid crop dimensions: width=%d, height=%d", width, height)
	}

	// Create the crop rectangle
	cropRect := image.Rect(x, y, x+width, y+height)

	// Ensure crop rectangle is within image bounds
	if !cropRect.In(bounds) {
		// Adjust crop rectangle to fit within image bounds
		cropRect = cropRect.Intersect(bounds)
		if cropRect.Empty() {
			return fmt.Errorf("crop rectangle is outside image bounds")
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Crop the image
	croppedImg := imaging.Crop(displayed, cropRect)

	return imaging.Encode(w, croppedImg, format, imaging.JPEGQuality(90))
}

// orient applies the flips and the clockwise rotation the crop area was
// drawn on.
func orient(src image.Image, crop Crop) image.Image {
	img := src
	if crop.FlipH {
		img = imaging.FlipH(img)
	}
	if crop.FlipV {
		img = imaging.FlipV(img)
	}
	switch r := normalizeDegrees(crop.Rotation); r {
	case 0:
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	default:
		// imaging rotates counter-clockwise
		img = imaging.Rotate(img, -r, color.Transparent)
	}
	return img
}

// normalizeDegrees maps deg into [0, 360). Non-finite angles count as 0.
func normalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// NewImagingCropper creates a new instance of ImagingCropper
func NewImagingCropper() *ImagingCropper {
	return &ImagingCropper{}
}
