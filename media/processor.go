package media

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"

	"github.com/camden-git/portfoliobackend/logging"
)

const (
	ThumbnailJpegQuality   = 85
	ThumbnailFileExtension = ".jpg"
	ThumbnailContentType   = "image/jpeg"
)

// Processor generates derived assets and saves them through a Store.
type Processor struct {
	store   Store
	maxSize int
	log     *logging.Logger
}

func NewProcessor(store Store, maxSize int, log *logging.Logger) *Processor {
	if log == nil {
		log = logging.Nop()
	}
	return &Processor{store: store, maxSize: maxSize, log: log}
}

// Decode reads an image honouring its EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// thumbnailSize scales (w, h) so the longest side is at most maxSize.
func thumbnailSize(w, h, maxSize int) (int, int) {
	if w <= maxSize && h <= maxSize {
		return w, h
	}
	var newWidth, newHeight int
	if w > h {
		newWidth = maxSize
		newHeight = int(math.Round(float64(h) * (float64(maxSize) / float64(w))))
	} else {
		newHeight = maxSize
		newWidth = int(math.Round(float64(w) * (float64(maxSize) / float64(h))))
	}
	return max(1, newWidth), max(1, newHeight)
}

// GenerateThumbnail stores a JPEG thumbnail of img under ThumbnailKey(originalKey).
func (p *Processor) GenerateThumbnail(ctx context.Context, img image.Image, originalKey string) (ObjectInfo, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return ObjectInfo{}, fmt.Errorf("invalid original image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}
	newWidth, newHeight := thumbnailSize(bounds.Dx(), bounds.Dy(), p.maxSize)
	thumb := imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality))
		if err != nil {
			writer.CloseWithError(fmt.Errorf("thumbnail encoding failed: %w", err))
			return
		}
		writer.Close()
	}()

	info, err := p.store.Put(ctx, ThumbnailKey(originalKey), ThumbnailContentType, reader)
	reader.Close()
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to save thumbnail via store: %w", err)
	}

	p.log.Debug(p.log.WithFields(ctx, map[string]any{"key": originalKey, "thumbnail": info.Key}), "processor: generated thumbnail")
	return info, nil
}

// GenerateThumbnailFromStore loads the original from the store first.
func (p *Processor) GenerateThumbnailFromStore(ctx context.Context, originalKey string) (ObjectInfo, image.Image, error) {
	rc, _, err := p.store.Get(ctx, originalKey)
	if err != nil {
		return ObjectInfo{}, nil, err
	}
	defer rc.Close()

	img, err := Decode(rc)
	if err != nil {
		return ObjectInfo{}, nil, err
	}
	info, err := p.GenerateThumbnail(ctx, img, originalKey)
	if err != nil {
		return ObjectInfo{}, nil, err
	}
	return info, img, nil
}
