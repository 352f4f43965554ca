package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
)

// Code images are printed or laser-marked, so modules are pure black on white.
var (
	Dark  = color.Gray{Y: 0x00}
	Light = color.Gray{Y: 0xff}
)

// SniffLen is the number of leading bytes Sniff reads.
const SniffLen = 512

// RenderQR draws a module matrix (true = dark) with each module scale pixels
// wide and a quiet zone of border modules on every side.
func RenderQR(modules [][]bool, scale, border int) (image.Image, error) {
	if len(modules) == 0 {
		return nil, errors.New("empty module matrix")
	}
	if scale < 1 || border < 0 {
		return nil, fmt.Errorf("invalid scale %d or border %d", scale, border)
	}

	size := (len(modules) + 2*border) * scale
	img := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{Light, Dark})
	draw.Draw(img, img.Bounds(), image.NewUniform(Light), image.Point{}, draw.Src)

	dark := image.NewUniform(Dark)
	for y, row := range modules {
		if len(row) != len(modules) {
			return nil, fmt.Errorf("module matrix row %d has %d modules, want %d", y, len(row), len(modules))
		}
		for x, on := range row {
			if !on {
				continue
			}
			x0 := (x + border) * scale
			y0 := (y + border) * scale
			draw.Draw(img, image.Rect(x0, y0, x0+scale, y0+scale), dark, image.Point{}, draw.Src)
		}
	}
	return img, nil
}

// EncodePNG renders img as best-compression PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Sniff reads the leading bytes of r and returns their detected MIME type,
// or "" when r is empty. The returned reader replays the sniffed bytes
// followed by the rest of r.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, SniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]

	replay := io.MultiReader(bytes.NewReader(head), r)
	if n == 0 {
		return "", replay, nil
	}
	return http.DetectContentType(head), replay, nil
}

// IsImage reports whether a sniffed MIME type is an image type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"image/x-icon":    ".ico",
	"image/avif":      ".avif",
	"video/mp4":       ".mp4",
	"application/pdf": ".pdf",
}

// Extension returns the usual file extension for a sniffed MIME type, or ""
// for types without a well-known one.
func Extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return extensions[mediaType]
}
