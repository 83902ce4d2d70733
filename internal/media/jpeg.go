package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// JPEG encodes and decodes frames as baseline JPEG.
type JPEG struct{}

func (JPEG) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func (JPEG) Decode(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

var (
	_ Encoder = JPEG{}
	_ Decoder = JPEG{}
)
