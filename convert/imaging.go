package convert

import (
	"fmt"
	"sync"

	"cr2jpeg/logger"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"
)

// genesis guards the process-wide codec setup. Every worker calls it
// before its first conversion; only the first caller does the work and
// the others block until it is done.
var (
	genesis     sync.Once
	genesisHook = initCodecs
)

func initCodecs() {
	// Compiles the AVIF decoder runtime up front instead of inside the
	// first Decode, which would otherwise race across workers.
	avif.InitDecoder()
}

// ImagingBackend opens any format registered with the image package
// (jpeg, png, gif, tiff, bmp, webp, avif) and saves it as JPEG.
type ImagingBackend struct {
	Quality int
	Console *logger.Console
}

func NewImagingBackend(quality int, console *logger.Console) *ImagingBackend {
	if console == nil {
		console = logger.Discard()
	}
	return &ImagingBackend{Quality: quality, Console: console}
}

func (b *ImagingBackend) Name() string {
	return "imaging"
}

func (b *ImagingBackend) Convert(source, target string) error {
	genesis.Do(func() {
		genesisHook()
		b.Console.Log("Image library initialized")
	})

	img, err := imaging.Open(source, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("error opening image: %w", err)
	}

	if err := imaging.Save(img, target, imaging.JPEGQuality(b.Quality)); err != nil {
		return fmt.Errorf("error writing JPEG: %w", err)
	}

	return nil
}
