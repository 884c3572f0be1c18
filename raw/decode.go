// Package raw decodes TIFF-based camera RAW containers (Canon CR2 and
// friends) into plain pixel buffers and encodes those buffers as JPEG.
//
// Decoding locates the JPEG-compressed renderings the camera stores inside
// the container, largest first, and hands back the first one the JPEG
// decoder accepts. The lossless sensor plane is skipped by that decoder, so
// no demosaicing happens here.
package raw

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"sort"

	"github.com/rwcarlsen/goexif/tiff"
)

// TIFF tag ids used to locate embedded image data.
const (
	tagStripOffsets    = 0x0111
	tagStripByteCounts = 0x0117
	tagJPEGOffset      = 0x0201
	tagJPEGLength      = 0x0202
)

// ColorLayout describes how samples are packed in a pixel buffer.
type ColorLayout int

const (
	RGB8 ColorLayout = iota
	Gray8
)

func (l ColorLayout) String() string {
	switch l {
	case RGB8:
		return "rgb8"
	case Gray8:
		return "gray8"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// Channels returns the number of bytes per pixel.
func (l ColorLayout) Channels() int {
	if l == Gray8 {
		return 1
	}
	return 3
}

// Image is a decoded, interleaved 8-bit pixel buffer.
type Image struct {
	Pix    []byte
	Width  int
	Height int
	Layout ColorLayout
}

var (
	ErrNotTIFF     = errors.New("not a TIFF-based raw container")
	ErrNoImageData = errors.New("no decodable image data in container")
)

// block is one embedded image candidate inside the container.
type block struct {
	ifd    int
	offset int64
	length int64
}

// DecodeFile reads path and decodes it with Decode.
func DecodeFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading raw file: %w", err)
	}
	return Decode(data)
}

// Decode parses the container's IFD chain and returns the largest embedded
// rendering that decodes cleanly.
func Decode(data []byte) (*Image, error) {
	t, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotTIFF, err)
	}

	blocks := findBlocks(t, int64(len(data)))
	if len(blocks) == 0 {
		return nil, ErrNoImageData
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].length > blocks[j].length
	})

	var lastErr error
	for _, b := range blocks {
		payload := data[b.offset : b.offset+b.length]
		img, err := jpeg.Decode(bytes.NewReader(payload))
		if err != nil {
			lastErr = fmt.Errorf("ifd %d: %w", b.ifd, err)
			continue
		}
		return toBuffer(img), nil
	}

	return nil, fmt.Errorf("%w: %v", ErrNoImageData, lastErr)
}

func findBlocks(t *tiff.Tiff, size int64) []block {
	var blocks []block

	add := func(ifd int, offset, length int64) {
		if offset <= 0 || length <= 2 || offset+length > size {
			return
		}
		blocks = append(blocks, block{ifd: ifd, offset: offset, length: length})
	}

	for i, dir := range t.Dirs {
		tags := make(map[uint16]*tiff.Tag, len(dir.Tags))
		for _, tag := range dir.Tags {
			tags[tag.Id] = tag
		}

		// Multi-strip images are uncompressed or striped raw planes, never a
		// self-contained JPEG stream.
		if off, cnt := tags[tagStripOffsets], tags[tagStripByteCounts]; off != nil && cnt != nil && off.Count == 1 {
			o, errO := off.Int64(0)
			n, errN := cnt.Int64(0)
			if errO == nil && errN == nil {
				add(i, o, n)
			}
		}

		if off, cnt := tags[tagJPEGOffset], tags[tagJPEGLength]; off != nil && cnt != nil {
			o, errO := off.Int64(0)
			n, errN := cnt.Int64(0)
			if errO == nil && errN == nil {
				add(i, o, n)
			}
		}
	}

	return blocks
}

func toBuffer(img image.Image) *Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := img.(*image.Gray); ok {
		pix := make([]byte, 0, w*h)
		for y := 0; y < h; y++ {
			start := y * g.Stride
			pix = append(pix, g.Pix[start:start+w]...)
		}
		return &Image{Pix: pix, Width: w, Height: h, Layout: Gray8}
	}

	pix := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			pix = append(pix, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	return &Image{Pix: pix, Width: w, Height: h, Layout: RGB8}
}
