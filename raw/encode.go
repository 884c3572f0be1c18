package raw

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

const MaxQuality = 100

// EncodeJPEG writes an interleaved pixel buffer as a baseline JPEG.
func EncodeJPEG(w io.Writer, pix []byte, width, height int, layout ColorLayout, quality int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if want := width * height * layout.Channels(); len(pix) != want {
		return fmt.Errorf("pixel buffer holds %d bytes, %dx%d %s needs %d", len(pix), width, height, layout, want)
	}
	if quality < 1 || quality > MaxQuality {
		return fmt.Errorf("quality %d out of range 1-%d", quality, MaxQuality)
	}

	var img image.Image
	switch layout {
	case Gray8:
		img = &image.Gray{Pix: pix, Stride: width, Rect: image.Rect(0, 0, width, height)}
	case RGB8:
		rgba := image.NewNRGBA(image.Rect(0, 0, width, height))
		for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
			rgba.Pix[j] = pix[i]
			rgba.Pix[j+1] = pix[i+1]
			rgba.Pix[j+2] = pix[i+2]
			rgba.Pix[j+3] = 0xff
		}
		img = rgba
	default:
		return fmt.Errorf("unsupported color layout %s", layout)
	}

	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("error encoding JPEG: %w", err)
	}
	return nil
}

// Encode is EncodeJPEG for a decoded Image.
func (img *Image) Encode(w io.Writer, quality int) error {
	return EncodeJPEG(w, img.Pix, img.Width, img.Height, img.Layout, quality)
}
