package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJPEGDimensions(t *testing.T) {
	path := writeTestImage(t, t.TempDir(), "photo.jpg", 64, 48)

	w, h, err := readJPEGDimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
}

func TestReadJPEGDimensions_RejectsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	png := writeTestImage(t, dir, "photo.png", 4, 4)

	_, _, err := readJPEGDimensions(png)
	assert.ErrorContains(t, err, "not a valid JPEG file")

	_, _, err = readJPEGDimensions(filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImageDimensions(t *testing.T) {
	dir := t.TempDir()
	for name, size := range map[string][2]int{
		"a.png":  {30, 20},
		"b.gif":  {7, 9},
		"c.jpeg": {16, 8},
	} {
		path := writeTestImage(t, dir, name, size[0], size[1])
		w, h, err := imageDimensions(path)
		require.NoError(t, err, name)
		assert.Equal(t, size, [2]int{w, h}, name)
	}
}

func TestWalkImages(t *testing.T) {
	root := t.TempDir()
	writeTestImage(t, root, "a.png", 30, 20)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0755))
	writeTestImage(t, filepath.Join(root, "nested"), "b.jpg", 10, 5)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "output"), 0755))
	writeTestImage(t, filepath.Join(root, "output"), "old.png", 1, 1)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0644))

	dir, err := walkImages(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(root), dir.Name)
	require.Len(t, dir.Files, 2)
	assert.Equal(t, "a.png", dir.Files[0].Name)
	assert.Equal(t, ImageInfo{Width: 30, Height: 20}, dir.Files[0].Image)
	assert.Equal(t, "nested/b.jpg", dir.Files[1].Name)
	assert.Equal(t, ImageInfo{Width: 10, Height: 5}, dir.Files[1].Image)
}
