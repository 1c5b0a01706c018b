package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// QROptions controls QR rendering. Size is the image width in pixels,
// Margin the quiet zone in modules.
type QROptions struct {
	Size   int
	Margin int
}

// DefaultQROptions matches the images the mobile app shows
var DefaultQROptions = QROptions{Size: 300, Margin: 2}

const (
	MaxQRSize   = 2048
	MaxQRMargin = 16
)

// RenderQRPNG encodes content as a PNG QR code at error correction level H
func RenderQRPNG(content string, opts QROptions) ([]byte, error) {
	if opts.Size <= 0 || opts.Size > MaxQRSize {
		return nil, fmt.Errorf("qr size must be between 1 and %d", MaxQRSize)
	}
	if opts.Margin < 0 || opts.Margin > MaxQRMargin {
		return nil, fmt.Errorf("qr margin must be between 0 and %d", MaxQRMargin)
	}

	q, err := qrcode.New(content, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()

	modules := len(bitmap) + 2*opts.Margin
	scale := opts.Size / modules
	if scale < 1 {
		scale = 1
	}
	width := opts.Size
	if width < modules*scale {
		width = modules * scale
	}
	offset := (width-modules*scale)/2 + opts.Margin*scale

	img := image.NewPaletted(image.Rect(0, 0, width, width), color.Palette{color.White, color.Black})
	dark := &image.Uniform{C: color.Black}
	for y, row := range bitmap {
		for x, on := range row {
			if !on {
				continue
			}
			r := image.Rect(offset+x*scale, offset+y*scale, offset+(x+1)*scale, offset+(y+1)*scale)
			draw.Draw(img, r, dark, image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// PNGDataURL wraps PNG bytes in a data URL
func PNGDataURL(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}
