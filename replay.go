package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"avatarcrop/cropview"
	"avatarcrop/geom"
)

// Script is a recorded crop gesture sequence.
//
//	image: {width: 800, height: 400}
//	steps:
//	  - down: {x: 190, y: 190}
//	  - move: {x: 240, y: 230}
//	  - up: true
//	  - rotate: 90
//	  - flip: h
type Script struct {
	Image struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	} `yaml:"image"`
	Steps []Step `yaml:"steps"`
}

// Step is one scripted input. Exactly one field is expected to be set.
// Up is a document-wide release, so it also ends gestures whose pointer
// left the image.
type Step struct {
	Down     *geom.Point `yaml:"down,omitempty"`
	Move     *geom.Point `yaml:"move,omitempty"`
	Up       bool        `yaml:"up,omitempty"`
	Rotate   *float64    `yaml:"rotate,omitempty"`
	Flip     string      `yaml:"flip,omitempty"`
	Zoom     *float64    `yaml:"zoom,omitempty"`
	Validate bool        `yaml:"validate,omitempty"`
}

func (s Step) apply(v *cropview.View, doc *cropview.Document) error {
	switch {
	case s.Down != nil:
		v.PointerDown(s.Down.X, s.Down.Y)
	case s.Move != nil:
		v.PointerMove(s.Move.X, s.Move.Y)
	case s.Up:
		doc.PointerUp()
	case s.Rotate != nil:
		v.Rotate(*s.Rotate)
	case s.Flip == "h":
		v.FlipHorizontal()
	case s.Flip == "v":
		v.FlipVertical()
	case s.Flip != "":
		return fmt.Errorf("unknown flip axis %q", s.Flip)
	case s.Zoom != nil:
		v.Zoom(*s.Zoom)
	case s.Validate:
		v.Validate()
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

// ReplayResult is printed after a script has run.
type ReplayResult struct {
	Area     cropview.Shape `json:"area" yaml:"area"`
	Bounds   geom.Rectangle `json:"bounds" yaml:"bounds"`
	Rotation float64        `json:"rotation" yaml:"rotation"`
	Crop     Crop           `json:"crop" yaml:"crop"`
	Updates  int            `json:"updates" yaml:"updates"`
}

// LoadScript decodes a gesture script.
func LoadScript(r io.Reader) (Script, error) {
	var script Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil {
		return Script{}, fmt.Errorf("failed to decode script: %w", err)
	}
	return script, nil
}

// Replay runs script against a fresh view. A positive size overrides the
// image size recorded in the script.
func Replay(ctx context.Context, script Script, width, height float64) (ReplayResult, *cropview.View, error) {
	if width <= 0 || height <= 0 {
		width, height = script.Image.Width, script.Image.Height
	}

	logger := log.Ctx(ctx).With().Str("component", "replay").Logger()
	doc := cropview.NewDocument()
	v := cropview.NewView(cropview.NewSurface(width, height),
		cropview.WithLogger(logger),
		cropview.WithDocument(doc),
	)
	defer v.Close()

	var updates int
	v.OnUpdate(func(cropview.Shape) { updates++ })
	v.LoadImage(width, height)

	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return ReplayResult{}, nil, err
		}
		if err := step.apply(v, doc); err != nil {
			return ReplayResult{}, nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	return ReplayResult{
		Area:     v.CropArea(),
		Bounds:   v.Surface().OuterRect(),
		Rotation: v.Surface().Rotation(),
		Crop:     cropFromView(v),
		Updates:  updates,
	}, v, nil
}

type replayCmd struct {
	Script string `arg:"" help:"YAML gesture script" type:"existingfile"`
	Image  string `help:"Image the script is replayed on; its size replaces the one in the script" type:"existingfile"`
	Export string `help:"Write the resulting crop of --image to this file"`
}

func (cmd *replayCmd) Run(globals *Globals) error {
	ctx := globals.setupLogging(context.Background())

	f, err := os.Open(cmd.Script)
	if err != nil {
		return fmt.Errorf("failed to open script %s: %w", cmd.Script, err)
	}
	defer f.Close()

	script, err := LoadScript(f)
	if err != nil {
		return err
	}

	var width, height float64
	if cmd.Image != "" {
		w, h, err := imageDimensions(cmd.Image)
		if err != nil {
			return fmt.Errorf("failed to read image dimensions: %w", err)
		}
		width, height = float64(w), float64(h)
	}

	result, _, err := Replay(ctx, script, width, height)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Int("steps", len(script.Steps)).Int("updates", result.Updates).Msg("script replayed")

	if cmd.Export != "" {
		if cmd.Image == "" {
			return fmt.Errorf("--export requires --image")
		}
		if err := exportCrop(ctx, cmd.Image, cmd.Export, result.Crop); err != nil {
			return err
		}
		log.Ctx(ctx).Info().Str("output", cmd.Export).Stringer("crop", result.Crop).Msg("crop exported")
	}

	return printAll(os.Stdout, globals.Format, []ReplayResult{result})
}

func exportCrop(ctx context.Context, source, dest string, crop Crop) error {
	format, err := imaging.FormatFromFilename(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve output format for %s: %w", dest, err)
	}

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", source, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", dest, err)
	}
	defer out.Close()

	return NewImagingCropper().Crop(ctx, in, out, crop, format)
}
