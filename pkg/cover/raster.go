// raster.go - Source image ingestion and lifecycle.
package cover

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxImageBytes is the largest source file LoadRaster accepts (20 MiB).
const MaxImageBytes = 20 << 20

// RasterImage is a decoded source bitmap owned by one editing session.
// Call Release when the image is replaced or the session ends.
type RasterImage struct {
	Bitmap      image.Image
	Orientation int    // EXIF orientation 1–8, 1 = as stored
	Source      string // revocable handle of the original bytes

	once    sync.Once
	release func()
}

// RasterOptions configures LoadRaster.
type RasterOptions struct {
	MaxBytes int64  // 0 = MaxImageBytes
	Source   string // source handle; generated when empty
	Release  func() // invoked once by Release
}

// NewRaster wraps an already decoded bitmap.
func NewRaster(img image.Image, orientation int) *RasterImage {
	if orientation < 1 || orientation > 8 {
		orientation = 1
	}
	return &RasterImage{Bitmap: img, Orientation: orientation, Source: "mem:" + uuid.NewString()}
}

// LoadRaster reads, size-checks and decodes a source image. The EXIF orientation
// is recorded, not applied; the renderer corrects it when drawing.
func LoadRaster(r io.Reader, opts RasterOptions) (*RasterImage, error) {
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = MaxImageBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrDecode, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrImageTooLarge, limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecode)
	}

	ri := NewRaster(img, ReadOrientation(data))
	if opts.Source != "" {
		ri.Source = opts.Source
	}
	ri.release = opts.Release
	return ri, nil
}

// Width returns the stored pixel width, or 0 when released.
func (ri *RasterImage) Width() int {
	if !ri.Ready() {
		return 0
	}
	return ri.Bitmap.Bounds().Dx()
}

// Height returns the stored pixel height, or 0 when released.
func (ri *RasterImage) Height() int {
	if !ri.Ready() {
		return 0
	}
	return ri.Bitmap.Bounds().Dy()
}

// Ready reports whether a bitmap is available for rendering.
func (ri *RasterImage) Ready() bool {
	return ri != nil && ri.Bitmap != nil
}

// Release frees the bitmap and revokes the source handle. Safe to call repeatedly.
func (ri *RasterImage) Release() {
	if ri == nil {
		return
	}
	ri.once.Do(func() {
		ri.Bitmap = nil
		if ri.release != nil {
			ri.release()
		}
	})
}

// Oriented returns the bitmap with its EXIF orientation corrected.
func (ri *RasterImage) Oriented() image.Image {
	if !ri.Ready() {
		return nil
	}
	return applyOrientation(ri.Bitmap, ri.Orientation)
}

// applyOrientation maps the eight EXIF cases onto the matching imaging transform.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
