package raw

import (
	"bytes"
	"errors"
	"image/jpeg"
	"path/filepath"
	"testing"

	"cr2jpeg/raw/rawtest"
)

func TestDecode_EmbeddedPreview(t *testing.T) {
	img, err := Decode(rawtest.CR2(32, 16))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Width != 32 || img.Height != 16 {
		t.Errorf("got %dx%d, want 32x16", img.Width, img.Height)
	}
	if img.Layout != RGB8 {
		t.Errorf("layout: got %s, want rgb8", img.Layout)
	}
	if len(img.Pix) != 32*16*3 {
		t.Errorf("pix length: got %d, want %d", len(img.Pix), 32*16*3)
	}
}

func TestDecodeFile(t *testing.T) {
	path := rawtest.WriteCR2(t, t.TempDir(), "IMG_0001.CR2", 8, 8)

	img, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if img.Width != 8 || img.Height != 8 {
		t.Errorf("got %dx%d, want 8x8", img.Width, img.Height)
	}
}

func TestDecodeFile_Missing(t *testing.T) {
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "nope.cr2")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDecode_NotTIFF(t *testing.T) {
	_, err := Decode([]byte("definitely not a raw file"))
	if !errors.Is(err, ErrNotTIFF) {
		t.Fatalf("got %v, want ErrNotTIFF", err)
	}
}

func TestDecode_CorruptPreview(t *testing.T) {
	data := rawtest.CR2(8, 8)
	// Trash the JPEG payload past the SOI marker.
	start := len(data) - len(rawtest.JPEG(8, 8))
	for i := start + 2; i < len(data); i++ {
		data[i] = 0xAA
	}

	_, err := Decode(data)
	if !errors.Is(err, ErrNoImageData) {
		t.Fatalf("got %v, want ErrNoImageData", err)
	}
}

func TestEncodeJPEG_RoundTrip(t *testing.T) {
	const w, h = 10, 6
	pix := make([]byte, w*h*3)
	for i := range pix {
		pix[i] = byte(i)
	}

	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, pix, w, h, RGB8, MaxQuality); err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}

	cfg, err := jpeg.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != w || cfg.Height != h {
		t.Errorf("got %dx%d, want %dx%d", cfg.Width, cfg.Height, w, h)
	}
}

func TestEncodeJPEG_Gray(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, make([]byte, 4*4), 4, 4, Gray8, 90); err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty output")
	}
}

func TestEncodeJPEG_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		pix     []byte
		w, h    int
		layout  ColorLayout
		quality int
	}{
		{"zero width", make([]byte, 0), 0, 4, RGB8, 100},
		{"short buffer", make([]byte, 10), 4, 4, RGB8, 100},
		{"quality too high", make([]byte, 48), 4, 4, RGB8, 101},
		{"quality zero", make([]byte, 48), 4, 4, RGB8, 0},
		{"unknown layout", make([]byte, 48), 4, 4, ColorLayout(9), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodeJPEG(&buf, tc.pix, tc.w, tc.h, tc.layout, tc.quality); err == nil {
				t.Error("expected error")
			}
		})
	}
}
