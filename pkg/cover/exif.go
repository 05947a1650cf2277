// exif.go - EXIF orientation lookup for JPEG sources.
package cover

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// ReadOrientation returns the EXIF orientation (1–8) of a JPEG, or 1 when the
// data carries no EXIF block or no usable tag.
func ReadOrientation(data []byte) int {
	if len(data) == 0 {
		return 1
	}
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}
