// Package qr renders the nomination form link as a printable QR code.
package qr

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	logx "comelec/pkg/logx"
)

// DefaultModuleSize is the edge length of one QR module in pixels.
const DefaultModuleSize = 10

var ErrEmptyURL = errors.New("qr: url is empty")

// Options control the rendered image.
type Options struct {
	ModuleSize    int
	DisableBorder bool
}

// Encode returns the PNG encoding of url at medium error correction,
// black on white.
func Encode(url string, opt Options) ([]byte, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	q.ForegroundColor = color.Black
	q.BackgroundColor = color.White
	q.DisableBorder = opt.DisableBorder

	size := opt.ModuleSize
	if size <= 0 {
		size = DefaultModuleSize
	}
	// A negative size asks the library for size pixels per module
	// rather than a fixed image width.
	return q.PNG(-size)
}

// WriteFile renders url into the PNG file at path.
func WriteFile(path, url string, opt Options, log logx.Logger) error {
	png, err := Encode(url, opt)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("qr: write %s: %w", path, err)
	}
	if !log.IsZero() {
		log.Info("qr code written", logx.String("path", path), logx.Int("bytes", len(png)))
	}
	return nil
}
