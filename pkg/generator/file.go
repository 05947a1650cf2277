// file.go - Cover file writer.
package generator

import (
	"fmt"
	"image"
	"os"

	"github.com/xob0t/GoCover/pkg/cover"
)

// WriteFile encodes img to a file at the given path.
func WriteFile(output string, img image.Image, out cover.OutputSettings) error {
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}

	if err := Encode(f, img, out); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", output, err)
	}
	return nil
}
