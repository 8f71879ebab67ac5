package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// VariantSpec describes a derived photo rendition.
type VariantSpec struct {
	Name         string
	MaxDimension int
	Quality      int
}

// PhotoVariants are written for every accepted photo, in this order.
var PhotoVariants = []VariantSpec{
	{Name: "standard", MaxDimension: 4096, Quality: 85},
	{Name: "preview", MaxDimension: 1600, Quality: 78},
	{Name: "thumb", MaxDimension: 400, Quality: 75},
}

// maxDecodePixels caps the decoded size to keep decompression bombs out of
// memory.
const maxDecodePixels = 80_000_000

var errUndecodable = errors.New("image format cannot be re-encoded")

// Rendition is one encoded variant of a Photo.
type Rendition struct {
	Data        []byte
	ContentType string
	// Reencoded is true when the bytes were decoded and encoded again,
	// which drops EXIF and other embedded metadata.
	Reencoded bool
}

// Photo is a decoded image that can be rendered at several sizes.
type Photo struct {
	img         image.Image
	contentType string
}

var decodeImage = image.Decode

// DecodePhoto decodes data once for all of its variants. JPEG and PNG are
// supported; anything else returns errUndecodable.
func DecodePhoto(data []byte, ext string) (*Photo, error) {
	var contentType string
	switch ext {
	case "jpg", "jpeg":
		contentType = "image/jpeg"
	case "png":
		contentType = "image/png"
	default:
		return nil, errUndecodable
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width*cfg.Height > maxDecodePixels {
		return nil, fmt.Errorf("image of %dx%d exceeds decode limit", cfg.Width, cfg.Height)
	}

	img, _, err := decodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return &Photo{img: img, contentType: contentType}, nil
}

// Render scales the photo so that neither side exceeds spec.MaxDimension and
// encodes it in the original format.
func (p *Photo) Render(spec VariantSpec) (*Rendition, error) {
	img := scale(p.img, spec.MaxDimension)

	var buf bytes.Buffer
	var err error
	switch p.contentType {
	case "image/jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: spec.Quality})
	case "image/png":
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", spec.Name, err)
	}

	return &Rendition{Data: buf.Bytes(), ContentType: p.contentType, Reencoded: true}, nil
}

func scale(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
