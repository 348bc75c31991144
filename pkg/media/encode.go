package media

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// EncodeJPEG encodes a frame, downscaling it first when it is wider
// than maxWidth (0 disables scaling).
func EncodeJPEG(img image.Image, maxWidth int, quality int) ([]byte, error) {
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = scale(img, maxWidth)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func scale(img image.Image, width int) image.Image {
	b := img.Bounds()
	height := b.Dy() * width / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
