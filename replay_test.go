package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"avatarcrop/cropview"
	"avatarcrop/geom"
)

const resizeScript = `
image: {width: 400, height: 400}
steps:
  - validate: true
  - down: {x: 190, y: 190}
  - move: {x: 210, y: 205}
  - move: {x: 240, y: 230}
  - up: true
`

func TestLoadScript(t *testing.T) {
	script, err := LoadScript(strings.NewReader(resizeScript))
	require.NoError(t, err)

	assert.Equal(t, 400.0, script.Image.Width)
	require.Len(t, script.Steps, 5)
	assert.Equal(t, &geom.Point{X: 190, Y: 190}, script.Steps[1].Down)
	assert.True(t, script.Steps[4].Up)

	_, err = LoadScript(strings.NewReader("steps:\n  - drag: {x: 1}\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestReplay_Resize(t *testing.T) {
	script, err := LoadScript(strings.NewReader(resizeScript))
	require.NoError(t, err)

	result, v, err := Replay(context.Background(), script, 0, 0)
	require.NoError(t, err)

	// The reset area is 200x200; grabbing 10px inside its corner keeps that
	// offset while the top-left corner stays put.
	assert.Equal(t, cropview.Shape{Position: geom.Pt(0, 0), Diameter: geom.Pt(250, 240)}, result.Area)
	assert.Equal(t, geom.Rect(0, 0, 400, 400), result.Bounds)
	assert.Equal(t, cropview.ActionNone, v.Action())
	assert.Equal(t, 5, result.Updates, "load, validate, two moves and release")
}

func TestReplay_SizeOverrideAndRotation(t *testing.T) {
	script := Script{}
	rot := 90.0
	script.Steps = []Step{{Rotate: &rot}, {Flip: "v"}}

	result, _, err := Replay(context.Background(), script, 300, 100)
	require.NoError(t, err)

	assert.Equal(t, geom.Rect(0, 0, 100, 300), result.Bounds)
	assert.Equal(t, -90.0, result.Rotation)
	assert.True(t, result.Crop.FlipV)
	assert.Equal(t, cropview.Shape{Position: geom.Pt(0, 250), Diameter: geom.Square(50)}, result.Area)
}

func TestReplay_ReleaseWithoutGesture(t *testing.T) {
	script := Script{Steps: []Step{{Up: true}, {Up: true}}}
	result, v, err := Replay(context.Background(), script, 100, 100)
	require.NoError(t, err)

	assert.Equal(t, cropview.ActionNone, v.Action())
	assert.Equal(t, 1, result.Updates, "only the image load is reported")
}

func TestReplay_StepErrors(t *testing.T) {
	script := Script{Steps: []Step{{Up: true}, {}}}
	_, _, err := Replay(context.Background(), script, 10, 10)
	assert.ErrorContains(t, err, "step 2: empty step")

	script = Script{Steps: []Step{{Flip: "x"}}}
	_, _, err = Replay(context.Background(), script, 10, 10)
	assert.ErrorContains(t, err, "unknown flip axis")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Replay(ctx, Script{Steps: []Step{{Up: true}}}, 10, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportCrop(t *testing.T) {
	dir := t.TempDir()
	src := writeTestImage(t, dir, "cat.png", 100, 50)
	dest := filepath.Join(dir, "out.png")

	require.NoError(t, exportCrop(context.Background(), src, dest, Crop{X: 0.5, Width: 0.5, Height: 1}))

	w, h, err := imageDimensions(dest)
	require.NoError(t, err)
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)

	assert.Error(t, exportCrop(context.Background(), src, filepath.Join(dir, "out.xyz"), Crop{Width: 1, Height: 1}))
}

func TestPrintAll(t *testing.T) {
	results := []ReplayResult{{Area: cropview.Shape{Diameter: geom.Square(10)}, Updates: 2}}

	var js bytes.Buffer
	require.NoError(t, printAll(&js, "json", results))
	assert.Contains(t, js.String(), `"diameter":{"x":10,"y":10}`)
	assert.Equal(t, 1, strings.Count(js.String(), "\n"))

	var ys bytes.Buffer
	require.NoError(t, printAll(&ys, "yaml", results))
	var back ReplayResult
	require.NoError(t, yaml.Unmarshal(ys.Bytes(), &back))
	assert.Equal(t, results[0], back)
}
