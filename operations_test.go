package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_UnmarshalJSON(t *testing.T) {
	var ops []Operation
	data := `[
		{"type": "crop", "filename": "a.jpg", "crop": {"x": 0.1, "y": 0.2, "w": 0.3, "h": 0.4, "rotation": 90, "flip_h": true}}
	]`
	require.NoError(t, json.Unmarshal([]byte(data), &ops))
	require.Len(t, ops, 1)

	require.NotNil(t, ops[0].Crop)
	assert.Equal(t, "a.jpg", ops[0].Crop.Filename)
	assert.Equal(t, Crop{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4, Rotation: 90, FlipH: true}, ops[0].Crop.Crop)

	var op Operation
	assert.ErrorContains(t, json.Unmarshal([]byte(`{"type":"delete"}`), &op), "unknown operation")
	assert.ErrorContains(t, json.Unmarshal([]byte(`{"type":"pick","filename":"b.jpg"}`), &op), "unknown operation")
}

func TestOperation_MarshalJSONKeepsType(t *testing.T) {
	op := Operation{Crop: &CropOperation{Filename: "a.jpg", Crop: Crop{Width: 1, Height: 1}}}
	b, err := json.Marshal(op)
	require.NoError(t, err)

	var back Operation
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, op, back)

	_, err = json.Marshal(Operation{})
	assert.Error(t, err)
}

func TestCrop_IDDependsOnOrientation(t *testing.T) {
	c := Crop{Width: 1, Height: 1}
	rotated := c
	rotated.Rotation = 90

	assert.Len(t, c.ID(), 32)
	assert.Equal(t, c.ID(), Crop{Width: 1, Height: 1}.ID())
	assert.NotEqual(t, c.ID(), rotated.ID())
}

func TestCroppedName(t *testing.T) {
	assert.Equal(t, "cat_cropped-01234567.png", croppedName("pets/cat.jpg", "0123456789abcdef"))
	assert.Equal(t, "dog_cropped-abc.gif", croppedName("dog.GIF", "abc"))
}

func TestOperationExecutor_Exec(t *testing.T) {
	root := t.TempDir()
	writeTestImage(t, root, "cat.png", 40, 20)
	writeTestImage(t, root, "dog.jpg", 10, 10)

	crop := Crop{X: 0.5, Width: 0.5, Height: 1}
	executor := OperationExecutor{
		BaseDir:   root,
		OutputDir: filepath.Join(root, "output"),
		Cropper:   NewImagingCropper(),
	}
	err := executor.Exec(context.Background(), []Operation{
		{Crop: &CropOperation{Filename: "cat.png", Crop: crop}},
		{Crop: &CropOperation{Filename: "dog.jpg", Crop: crop}},
	})
	require.NoError(t, err)

	w, h, err := imageDimensions(filepath.Join(root, "output", croppedName("cat.png", crop.ID())))
	require.NoError(t, err)
	assert.Equal(t, 20, w)
	assert.Equal(t, 20, h)

	w, h, err = imageDimensions(filepath.Join(root, "output", croppedName("dog.jpg", crop.ID())))
	require.NoError(t, err)
	assert.Equal(t, 5, w, "jpeg sources are exported as png")
	assert.Equal(t, 10, h)
}

func TestOperationExecutor_ReportsFailures(t *testing.T) {
	root := t.TempDir()
	executor := OperationExecutor{
		BaseDir:   root,
		OutputDir: filepath.Join(root, "output"),
		Cropper:   NewImagingCropper(),
	}

	err := executor.Exec(context.Background(), []Operation{
		{Crop: &CropOperation{Filename: "missing.png", Crop: Crop{Width: 1, Height: 1}}},
	})
	assert.ErrorContains(t, err, "failed to open file")

	assert.NoError(t, executor.Exec(context.Background(), nil))
}
