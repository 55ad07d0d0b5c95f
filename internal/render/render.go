// Package render turns placement snapshots into images and writes them to
// files, streams and terminals.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/jmylchreest/allcolour/internal/placement"
)

// Sink consumes snapshots of a run.
type Sink interface {
	// Render writes one snapshot.
	Render(snap *placement.Snapshot) error
}

// Background is the colour of cells that have not been placed yet.
var Background = color.RGBA{A: 0xff}

// ToImage paints snap onto a new RGBA image, filling unplaced cells with bg.
func ToImage(snap *placement.Snapshot, bg color.RGBA) *image.RGBA {
	w, h := snap.Width(), snap.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}
	for c, col := range snap.All() {
		off := img.PixOffset(c.X, c.Y)
		img.Pix[off+0] = col.R
		img.Pix[off+1] = col.G
		img.Pix[off+2] = col.B
		img.Pix[off+3] = 0xff
	}
	return img
}

// Format is an image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	// FormatPPM is binary netpbm (P6).
	FormatPPM Format = "ppm"
)

// ValidFormats returns the supported encodings.
func ValidFormats() []Format {
	return []Format{FormatPNG, FormatBMP, FormatTIFF, FormatPPM}
}

// ParseFormat converts a name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "ppm", "pnm":
		return FormatPPM, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: %v)", s, ValidFormats())
	}
}

// FormatFromPath picks a format from the file extension, defaulting to PNG.
func FormatFromPath(path string) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return FormatPNG
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img *image.RGBA, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case FormatPPM:
		return EncodePPM(w, img)
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
}

// EncodePPM writes img as a binary P6 netpbm image, dropping alpha.
func EncodePPM(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return fmt.Errorf("failed to write PPM header: %w", err)
	}

	row := make([]byte, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			row[3*x+0] = src[4*x+0]
			row[3*x+1] = src[4*x+1]
			row[3*x+2] = src[4*x+2]
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write PPM row %d: %w", y, err)
		}
	}
	return nil
}
