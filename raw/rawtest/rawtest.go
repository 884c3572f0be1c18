// Package rawtest builds small CR2-shaped fixtures for tests: a
// little-endian TIFF container with the Canon signature whose first IFD
// points at an embedded JPEG rendering.
package rawtest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

type entry struct {
	tag, typ uint16
	value    uint32
}

const (
	typeShort = 3
	typeLong  = 4

	headerSize = 16
)

// JPEG returns a baseline JPEG of a width×height gradient.
func JPEG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / width), G: uint8(y * 255 / height), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// CR2 returns a container embedding a width×height JPEG in IFD0.
func CR2(width, height int) []byte {
	preview := JPEG(width, height)

	entries := []entry{
		{0x0100, typeLong, uint32(width)},
		{0x0101, typeLong, uint32(height)},
		{0x0103, typeShort, 6},
		{0x0111, typeLong, 0},
		{0x0117, typeLong, uint32(len(preview))},
	}
	dataOffset := headerSize + 2 + len(entries)*12 + 4
	entries[3].value = uint32(dataOffset)

	le := binary.LittleEndian
	var buf bytes.Buffer

	// "II", 42, IFD0 offset, "CR", major/minor version, raw IFD offset.
	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(headerSize))
	buf.WriteString("CR")
	buf.Write([]byte{2, 0})
	binary.Write(&buf, le, uint32(0))

	binary.Write(&buf, le, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, le, e.tag)
		binary.Write(&buf, le, e.typ)
		binary.Write(&buf, le, uint32(1))
		if e.typ == typeShort {
			binary.Write(&buf, le, uint16(e.value))
			binary.Write(&buf, le, uint16(0))
		} else {
			binary.Write(&buf, le, e.value)
		}
	}
	binary.Write(&buf, le, uint32(0))

	buf.Write(preview)
	return buf.Bytes()
}

// WriteCR2 writes a fixture under dir and returns its path.
func WriteCR2(tb testing.TB, dir, name string, width, height int) string {
	tb.Helper()
	return WriteFile(tb, dir, name, CR2(width, height))
}

// WriteFile writes data to dir/name, creating dir if needed.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tb.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
