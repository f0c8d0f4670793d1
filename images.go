package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type FileInfo struct {
	Name       string    `json:"name"`
	IsDir      bool      `json:"is_dir"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	URL        string    `json:"url"`
	Image      ImageInfo `json:"image"`
}

type Directory struct {
	Name  string     `json:"name"`
	Files []FileInfo `json:"files"`
}

func walkImages(rootPath string) (Directory, error) {
	var files []FileInfo

	if err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && d.Name() == "output" {
				return filepath.SkipDir
			}
			return nil
		}
		if !isImageFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %w", err)
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		files = append(files, FileInfo{
			Name:       filepath.ToSlash(relPath),
			IsDir:      d.IsDir(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	}); err != nil {
		return Directory{}, err
	}

	for i := range files {
		w, h, err := imageDimensions(filepath.Join(rootPath, files[i].Name))
		if err != nil {
			log.Ctx(context.Background()).Error().Err(err).Str("filename", files[i].Name).Msg("cannot read image dimensions")
			continue
		}
		files[i].Image = ImageInfo{
			Width:  w,
			Height: h,
		}
	}

	return Directory{
		Name:  filepath.Base(rootPath),
		Files: files,
	}, nil
}

func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// imageDimensions reads the pixel size of an image without decoding it.
// JPEGs are read by walking their markers, other formats through their
// registered config decoder.
func imageDimensions(filePath string) (width, height int, err error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".jpg", ".jpeg":
		return readJPEGDimensions(filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func readJPEGDimensions(filePath string) (width, height int, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var buf [2]byte

	// Read the first two bytes (JPEG SOI marker)
	if _, err = io.ReadFull(file, buf[:]); err != nil {
		return 0, 0, fmt.Errorf("failed to read SOI marker: %w", err)
	}
	if buf[0] != 0xFF || buf[1] != 0xD8 {
		return 0, 0, errors.New("not a valid JPEG file")
	}

	for {
		// Read the next marker
		if _, err = io.ReadFull(file, buf[:]); err != nil {
			return 0, 0, err
		}
		if buf[0] != 0xFF {
			return 0, 0, errors.New("invalid JPEG format")
		}

		// Skip padding bytes (0xFF)
		for buf[1] == 0xFF {
			if _, err = io.ReadFull(file, buf[1:2]); err != nil {
				return 0, 0, err
			}
		}
		marker := buf[1]

		// Read the length of the segment
		if _, err = io.ReadFull(file, buf[:]); err != nil {
			return 0, 0, err
		}
		length := binary.BigEndian.Uint16(buf[:])
		if length < 2 {
			return 0, 0, errors.New("invalid JPEG segment length")
		}

		// Check for SOF0..SOF3 (Start of Frame) marker which contains the dimensions
		if marker >= 0xC0 && marker <= 0xC3 {
			// Read the segment data
			segment := make([]byte, length-2)
			if _, err = io.ReadFull(file, segment); err != nil {
				return 0, 0, err
			}
			if len(segment) < 5 {
				return 0, 0, errors.New("truncated JPEG frame header")
			}

			// Extract height and width
			height = int(binary.BigEndian.Uint16(segment[1:3]))
			width = int(binary.BigEndian.Uint16(segment[3:5]))
			return width, height, nil
		}

		// Skip the segment
		if _, err = file.Seek(int64(length-2), io.SeekCurrent); err != nil {
			return 0, 0, err
		}
	}
}
