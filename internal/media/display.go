package media

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/1ureka/framecast/internal/util"
)

// FileDisplay keeps the most recent frame in a JPEG file. Each frame is
// written to a temporary file and renamed over the target, so viewers never
// observe a half-written image.
type FileDisplay struct {
	path    string
	quality int
	warn    rate.Sometimes
}

// NewFileDisplay checks that path's directory is writable and returns a
// display rewriting path on every frame.
func NewFileDisplay(path string, quality int) (*FileDisplay, error) {
	probe, err := os.CreateTemp(filepath.Dir(path), ".framecast-*")
	if err != nil {
		return nil, fmt.Errorf("cannot open display %s: %w", path, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return &FileDisplay{
		path:    path,
		quality: quality,
		warn:    rate.Sometimes{Interval: 5 * time.Second},
	}, nil
}

func (d *FileDisplay) Show(frameID uint32, img image.Image) {
	if err := d.write(img); err != nil {
		d.warn.Do(func() {
			util.LogWarning("display: failed to write frame %d: %v", frameID, err)
		})
	}
}

func (d *FileDisplay) write(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".framecast-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: d.quality}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.path)
}

func (d *FileDisplay) Close() error { return nil }

// Discard drops every frame.
type Discard struct{}

func (Discard) Show(uint32, image.Image) {}
func (Discard) Close() error             { return nil }

var (
	_ Display = (*FileDisplay)(nil)
	_ Display = Discard{}
)
