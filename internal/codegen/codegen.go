// Package codegen mints item identifiers and renders their QR code images.
package codegen

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/erazemk/itemtag/internal/blob"
	"github.com/erazemk/itemtag/internal/imaging"
)

// ImagePrefix is the URL prefix code images are served under.
const ImagePrefix = "/static/qr/"

// Default rendering parameters, sized for print and industrial marking.
const (
	DefaultScale  = 20
	DefaultBorder = 2
)

// Code is a freshly generated identifier with its URL and image location.
type Code struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Image string `json:"qr_png"`
}

// Generator creates codes. Images are written to Images; nothing is recorded
// in the item store until the item is first saved.
type Generator struct {
	BaseURL string
	Images  blob.Store
	Scale   int
	Border  int

	// NewID overrides identifier minting. Nil uses NewID.
	NewID func() string
}

// NewID returns the first eight hex digits of a random UUID, upper-cased.
func NewID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// ImageName returns the blob name of the code image for id.
func ImageName(id string) string {
	return id + ".png"
}

// Generate mints an identifier, renders its URL at the highest error
// correction level and stores the PNG.
func (g *Generator) Generate(ctx context.Context) (*Code, error) {
	newID := g.NewID
	if newID == nil {
		newID = NewID
	}
	id := newID()
	url := g.BaseURL + id

	png, err := g.render(url)
	if err != nil {
		return nil, err
	}

	name := ImageName(id)
	if err := g.Images.Put(ctx, name, bytes.NewReader(png)); err != nil {
		return nil, fmt.Errorf("storing code image: %w", err)
	}

	return &Code{ID: id, URL: url, Image: ImagePrefix + name}, nil
}

func (g *Generator) render(content string) ([]byte, error) {
	q, err := qrcode.New(content, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("encoding QR code: %w", err)
	}
	// The quiet zone is drawn by RenderQR at the configured width.
	q.DisableBorder = true

	scale := g.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	img, err := imaging.RenderQR(q.Bitmap(), scale, g.Border)
	if err != nil {
		return nil, fmt.Errorf("rendering QR code: %w", err)
	}
	return imaging.EncodePNG(img)
}
