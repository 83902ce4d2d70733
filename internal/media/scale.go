package media

import (
	"image"

	"golang.org/x/image/draw"
)

// FitWidth downsizes img to maxWidth, preserving aspect ratio. Images that
// are already narrow enough, or maxWidth <= 0, are returned unchanged.
func FitWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}

	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
