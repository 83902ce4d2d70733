package media

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SourcePattern selects the synthetic test-pattern source.
const SourcePattern = "pattern"

// OpenSource opens the source described by spec: SourcePattern, an image
// directory, or a single image file. frames limits the pattern source
// (0 = endless); loop restarts file sources at end of stream.
func OpenSource(spec string, frames int, loop bool) (Source, error) {
	if spec == "" || spec == SourcePattern {
		return NewPatternSource(960, 540, frames), nil
	}

	info, err := os.Stat(spec)
	if err != nil {
		return nil, fmt.Errorf("cannot open video source %s: %w", spec, err)
	}

	var paths []string
	if info.IsDir() {
		paths, err = listImages(spec)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("cannot open video source %s: no .jpg/.jpeg/.png files", spec)
		}
	} else {
		paths = []string{spec}
	}

	return &FileSource{paths: paths, loop: loop}, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot open video source %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

// FileSource plays a fixed list of image files in order.
type FileSource struct {
	paths []string
	next  int
	loop  bool
}

func (s *FileSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.paths) {
		if !s.loop {
			return nil, io.EOF
		}
		s.next = 0
	}

	path := s.paths[s.next]
	s.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// FPS is unknown for still images; pacing falls back to the default rate.
func (s *FileSource) FPS() float64 { return 0 }

func (s *FileSource) Close() error { return nil }

// ---------------------------------------------------------------------------
// Test pattern
// ---------------------------------------------------------------------------

var patternBars = []color.RGBA{
	{0xC0, 0xC0, 0xC0, 0xFF},
	{0xC0, 0xC0, 0x00, 0xFF},
	{0x00, 0xC0, 0xC0, 0xFF},
	{0x00, 0xC0, 0x00, 0xFF},
	{0xC0, 0x00, 0xC0, 0xFF},
	{0xC0, 0x00, 0x00, 0xFF},
	{0x00, 0x00, 0xC0, 0xFF},
}

// PatternSource renders scrolling colour bars, standing in for a camera.
type PatternSource struct {
	width, height int
	limit         int
	n             int
}

// NewPatternSource returns a width×height pattern that ends after limit
// frames (0 = endless).
func NewPatternSource(width, height, limit int) *PatternSource {
	return &PatternSource{width: width, height: height, limit: limit}
}

func (s *PatternSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.limit > 0 && s.n >= s.limit {
		return nil, io.EOF
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	barWidth := s.width/len(patternBars) + 1
	shift := s.n * 4
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			img.SetRGBA(x, y, patternBars[((x+shift)/barWidth)%len(patternBars)])
		}
	}

	// A sweeping line makes frozen or skipped frames visible.
	row := (s.n * 3) % s.height
	for x := 0; x < s.width; x++ {
		img.SetRGBA(x, row, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF})
	}

	s.n++
	return img, nil
}

func (s *PatternSource) FPS() float64 { return 25 }

func (s *PatternSource) Close() error { return nil }
