// Package preview rasterizes single pages for the dashboard. The split path
// never touches it; a render failure costs a thumbnail, not a split.
package preview

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

type Renderer struct {
	quality int
}

func New() *Renderer {
	return &Renderer{quality: 80}
}

// Page renders one page as a JPEG thumbnail around the requested pixel
// width. Page index is zero-based.
func (r *Renderer) Page(data []byte, page, width int) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range, document has %d pages", page, doc.NumPage())
	}

	if width <= 0 {
		width = 320
	}
	// Letter size is 8.5in wide; derive the DPI that lands near the
	// requested width and keep it in a sane band.
	dpi := float64(width) / 8.5
	if dpi < 18 {
		dpi = 18
	}
	if dpi > 144 {
		dpi = 144
	}

	img, err := doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	log.Debug().Int("page", page).Int("jpeg_size", buf.Len()).Float64("dpi", dpi).Msg("rendered page thumbnail")
	return buf.Bytes(), nil
}
