package convert

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"cr2jpeg/raw"

	"github.com/gabriel-vasile/mimetype"
)

// PipelineBackend decodes the RAW container into a pixel buffer and runs
// it through the JPEG encoder.
type PipelineBackend struct {
	Quality int
}

func NewPipelineBackend(quality int) *PipelineBackend {
	return &PipelineBackend{Quality: quality}
}

func (b *PipelineBackend) Name() string {
	return "raw pipeline"
}

func (b *PipelineBackend) Convert(source, target string) (err error) {
	mtype, err := mimetype.DetectFile(source)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	if !isTIFF(mtype) {
		return fmt.Errorf("%w: detected %s", raw.ErrNotTIFF, mtype.String())
	}

	img, err := raw.DecodeFile(source)
	if err != nil {
		return fmt.Errorf("could not decode file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(target), ".*.jpg.tmp")
	if err != nil {
		return fmt.Errorf("could not create JPG file: %w", err)
	}
	tempPath := tempFile.Name()

	tempFileClosed := false
	defer func() {
		if !tempFileClosed {
			tempFile.Close()
		}
		if err != nil {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(tempFile)
	if err = img.Encode(w, b.Quality); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("error writing JPG file: %w", err)
	}

	err = tempFile.Close()
	tempFileClosed = true
	if err != nil {
		return fmt.Errorf("error closing JPG file: %w", err)
	}

	if err = os.Rename(tempPath, target); err != nil {
		return fmt.Errorf("error renaming file: %w", err)
	}

	return nil
}

func isTIFF(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("image/tiff") {
			return true
		}
	}
	return false
}
