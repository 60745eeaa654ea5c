// Package barcode renders an ordered photo set into a single "barcode"
// image: every photo is squeezed into a narrow vertical strip and the strips
// are laid side by side in input order.
package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"photo-journal-backend/internal/config"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"golang.org/x/sync/errgroup"
)

// ErrNoPhotos is returned when there is nothing to render.
var ErrNoPhotos = errors.New("no photos to render")

const (
	maxSourceBytes = 32 << 20
	fetchWorkers   = 4
	jpegQuality    = 90
)

// Generator renders barcodes from photo URLs.
type Generator struct {
	client     *http.Client
	stripWidth int
	height     int
}

// NewGenerator creates a generator using cfg's strip geometry and fetch timeout.
func NewGenerator(cfg config.BarcodeConfig) *Generator {
	return &Generator{
		client:     &http.Client{Timeout: cfg.FetchTimeout},
		stripWidth: cfg.StripWidth,
		height:     cfg.Height,
	}
}

// Generate fetches every URL, renders the barcode and writes it as JPEG to
// outputPath. The returned path is the written file.
func (g *Generator) Generate(ctx context.Context, urls []string, outputPath string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoPhotos
	}

	start := time.Now()
	sources := make([]image.Image, len(urls))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchWorkers)
	for i, url := range urls {
		eg.Go(func() error {
			img, err := g.fetch(egCtx, url)
			if err != nil {
				return fmt.Errorf("photo %d: %w", i, err)
			}
			sources[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", err
	}

	canvas := Compose(sources, g.stripWidth, g.height)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	if err := jpeg.Encode(out, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		os.Remove(outputPath)
		return "", fmt.Errorf("encode barcode: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("close barcode file: %w", err)
	}

	log.Debug().
		Int("photos", len(urls)).
		Dur("elapsed", time.Since(start)).
		Str("path", outputPath).
		Msg("Barcode rendered")

	return outputPath, nil
}

// Compose lays sources out left to right, each scaled into a stripWidth x height strip.
func Compose(sources []image.Image, stripWidth, height int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, stripWidth*len(sources), height))
	for i, src := range sources {
		dst := image.Rect(i*stripWidth, 0, (i+1)*stripWidth, height)
		draw.ApproxBiLinear.Scale(canvas, dst, src, src.Bounds(), draw.Src, nil)
	}
	return canvas
}

func (g *Generator) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}
