package barcode

import (
	"fmt"
	"image"
	"os"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// blurHashSize bounds the thumbnail BlurHash is computed from.
const blurHashSize = 64

// ComputeBlurHash returns a BlurHash placeholder for the image at path.
func ComputeBlurHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	// Barcodes are wide, so more horizontal components
	hash, err := blurhash.Encode(6, 2, shrink(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

func shrink(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= blurHashSize && h <= blurHashSize {
		return img
	}

	var dw, dh int
	if w > h {
		dw = blurHashSize
		dh = max(h*blurHashSize/w, 1)
	} else {
		dh = blurHashSize
		dw = max(w*blurHashSize/h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
