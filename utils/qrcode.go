package utils

import (
	"encoding/base64"
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize  = 200
	DefaultQRColor = "000000"
)

// ParseHexColor turns a 6-digit hex string (no '#') into an opaque color.
func ParseHexColor(s string) (color.Color, error) {
	var r, g, b uint8
	if len(s) != 6 {
		return nil, fmt.Errorf("invalid hex color %q", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// EncodeQRCodePNG renders the redirect URL as a PNG with the requested
// foreground color on white, error correction H like the original generator.
func EncodeQRCodePNG(redirectURL string, size int, colorHex string) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	if colorHex == "" {
		colorHex = DefaultQRColor
	}

	fg, err := ParseHexColor(colorHex)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(redirectURL, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	qr.ForegroundColor = fg
	qr.BackgroundColor = color.White

	return qr.PNG(size)
}

func PNGDataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
