package encode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register decoder
	"os"

	"golang.org/x/image/draw"
)

const jpegQuality = 90

// ErrNotRegularFile is returned when a screenshot path names a directory or device.
var ErrNotRegularFile = errors.New("not a regular file")

// Screenshot is a prepared image payload.
type Screenshot struct {
	Base64 string
	// Normalized is false when the file bytes are sent as-is.
	Normalized bool
	Width      int
	Height     int
}

// LoadScreenshot reads path and returns its base64 payload.
//
// With maxDim <= 0 the file is encoded verbatim. Otherwise decodable PNG/JPEG
// files are re-encoded as JPEG and downscaled so the longest side is at most
// maxDim; undecodable files are still sent verbatim.
func LoadScreenshot(path string, maxDim int) (*Screenshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if maxDim <= 0 {
		return &Screenshot{Base64: EncodeBase64String(raw)}, nil
	}
	jpg, w, h, err := NormalizeJPEG(raw, maxDim)
	if err != nil {
		return &Screenshot{Base64: EncodeBase64String(raw)}, nil
	}
	return &Screenshot{Base64: EncodeBase64String(jpg), Normalized: true, Width: w, Height: h}, nil
}

// NormalizeJPEG decodes raw and re-encodes it as JPEG, scaling down when needed.
func NormalizeJPEG(raw []byte, maxDim int) ([]byte, int, int, error) {
	if maxDim <= 0 {
		return nil, 0, 0, errors.New("max dimension must be positive")
	}

	srcImg, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := srcImg.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, errors.New("invalid image dimensions")
	}

	newW, newH := fitWithin(width, height, maxDim)

	// JPEG has no alpha channel; flatten onto white.
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), srcImg, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), newW, newH, nil
}

func fitWithin(width, height, maxDim int) (int, int) {
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxDim {
		return width, height
	}
	scale := float64(maxDim) / float64(longest)
	newW := int(float64(width) * scale)
	newH := int(float64(height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}
