package main

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

type Operations = []Operation

type Operation struct {
	Crop *CropOperation `yaml:"crop,omitempty"`
}

func (o Operation) MarshalJSON() ([]byte, error) {
	if o.Crop == nil {
		return nil, fmt.Errorf("empty operation")
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		*CropOperation
	}{"crop", o.Crop})
}

// unmarshal
func (o *Operation) UnmarshalJSON(data []byte) error {
	var op struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &op); err != nil {
		return fmt.Errorf("failed to unmarshal operation: %w", err)
	}

	switch op.Type {
	case "crop":
		var crop CropOperation
		if err := json.Unmarshal(data, &crop); err != nil {
			return fmt.Errorf("failed to unmarshal crop operation: %w", err)
		}
		o.Crop = &crop
	default:
		return fmt.Errorf("unknown operation %q", op.Type)
	}
	return nil
}

// Crop describes a crop area on the displayed image: the source is flipped,
// then rotated clockwise, and the crop is taken from the result.
type Crop struct {
	// X is the x-coordinate of the top-left corner of the crop rectangle, relative to the displayed width (0.0 to 1.0).
	X float64 `json:"x" yaml:"x"`
	// Y is the y-coordinate of the top-left corner of the crop rectangle, relative to the displayed height (0.0 to 1.0).
	Y float64 `json:"y" yaml:"y"`
	// Width is the width of the crop rectangle, relative to the displayed width (0.0 to 1.0).
	Width float64 `json:"w" yaml:"w"`
	// Height is the height of the crop rectangle, relative to the displayed height (0.0 to 1.0).
	Height float64 `json:"h" yaml:"h"`
	// Rotation is the clockwise rotation of the displayed image in degrees.
	Rotation float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	FlipH    bool    `json:"flip_h,omitempty" yaml:"flip_h,omitempty"`
	FlipV    bool    `json:"flip_v,omitempty" yaml:"flip_v,omitempty"`
}

func (c Crop) String() string {
	return fmt.Sprintf("crop(x=%.2f,y=%.2f,w=%.2f,h=%.2f,r=%.2f,fh=%t,fv=%t)",
		c.X, c.Y, c.Width, c.Height, c.Rotation, c.FlipH, c.FlipV)
}

func (c Crop) ID() string {
	m := md5.New()
	_, err := m.Write([]byte(c.String()))
	if err != nil {
		log.Error().Err(err).Msg("failed to hash crop string")
		return ""
	}
	return fmt.Sprintf("%x", m.Sum(nil))
}

type CropOperation struct {
	Filename string `json:"filename" yaml:"filename"`
	Crop     Crop   `json:"crop" yaml:"crop"`
}

type Cropper interface {
	Crop(ctx context.Context, r io.Reader, w io.Writer, crop Crop, format imaging.Format) error
}

type OperationExecutor struct {
	BaseDir   string
	OutputDir string
	Cropper   Cropper
}

func (r OperationExecutor) Exec(ctx context.Context, ops []Operation) error {
	if len(ops) == 0 {
		log.Ctx(ctx).Warn().Msg("no operations to execute")
		return nil
	}

	pooler := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(runtime.NumCPU())

	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.OutputDir, err)
	}
	for _, op := range ops {
		op := op // per-iteration copy (go directive < 1.22)
		pooler.Go(func(ctx context.Context) error {
			if err := r.executeOperation(ctx, op); err != nil {
				log.Ctx(ctx).Error().Err(err).
					Interface("op", op).
					Msg("failed to execute operation")
				return err
			}
			return nil
		})
	}

	if err := pooler.Wait(); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Msg("finished with errors")
		return err
	}

	return nil
}

func (r OperationExecutor) executeOperation(ctx context.Context, op Operation) error {
	if op.Crop == nil {
		return nil
	}
	return r.executeCrop(ctx, *op.Crop)
}

func (r OperationExecutor) executeCrop(ctx context.Context, op CropOperation) error {
	log.Ctx(ctx).Info().Str("filename", op.Filename).Stringer("crop", op.Crop).Msg("cropping")
	sourcePath := filepath.Join(r.BaseDir, op.Filename)
	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", sourcePath, err)
	}
	defer f.Close()

	newName := croppedName(op.Filename, op.Crop.ID())
	format, err := imaging.FormatFromFilename(newName)
	if err != nil {
		return fmt.Errorf("failed to resolve output format for %s: %w", newName, err)
	}

	var b bytes.Buffer
	if err := r.Cropper.Crop(ctx, f, &b, op.Crop, format); err != nil {
		return err
	}

	croppedPath := filepath.Join(r.OutputDir, newName)
	wf, err := os.Create(croppedPath)
	if err != nil {
		return fmt.Errorf("failed to create cropped file %s: %w", newName, err)
	}
	defer wf.Close()
	if _, err := b.WriteTo(wf); err != nil {
		return fmt.Errorf("failed to write cropped data to file %s: %w", newName, err)
	}
	return nil
}

// croppedName keeps GIFs as GIFs and turns everything else into PNG. The
// id keeps several crops of one file apart.
func croppedName(filename, id string) string {
	ext := "png"
	if strings.EqualFold(filepath.Ext(filename), ".gif") {
		ext = "gif"
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_cropped-%s.%s", base, id, ext)
}
