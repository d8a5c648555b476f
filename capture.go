package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
)

// CapturedImage is a single still image, encoded and ready to send
type CapturedImage struct {
	Data     []byte
	MIMEType string
}

// Base64 returns the image payload without any data URL prefix
func (c *CapturedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(c.Data)
}

// DataURL returns the image as a data: URL
func (c *CapturedImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", c.MIMEType, c.Base64())
}

// CaptureConfig controls how captured frames are normalized
type CaptureConfig struct {
	Width   int  // capture box width (default 600)
	Height  int  // capture box height (default 400)
	Mirror  bool // flip horizontally, like a mirrored webcam preview
	Quality int  // JPEG quality (default 90)
}

// Capturer turns raw image input into a CapturedImage
type Capturer struct {
	config CaptureConfig
}

// NewCapturer creates a Capturer, filling in defaults for zero values
func NewCapturer(config CaptureConfig) *Capturer {
	if config.Width <= 0 {
		config.Width = 600
	}
	if config.Height <= 0 {
		config.Height = 400
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = 90
	}
	return &Capturer{config: config}
}

// CaptureFile reads and normalizes the image at path
func (c *Capturer) CaptureFile(path string) (*CapturedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return c.Capture(f)
}

// CaptureDataURL accepts either a data: URL or bare base64 content
func (c *Capturer) CaptureDataURL(dataURL string) (*CapturedImage, error) {
	payload := dataURL
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL: missing ',' separator")
		}
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return c.Capture(bytes.NewReader(raw))
}

// Capture decodes r, fits it into the capture box and re-encodes it as JPEG
func (c *Capturer) Capture(r io.Reader) (*CapturedImage, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if c.config.Mirror {
		img = imaging.FlipH(img)
	}

	b := img.Bounds()
	if b.Dx() > c.config.Width || b.Dy() > c.config.Height {
		img = imaging.Fit(img, c.config.Width, c.config.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.config.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &CapturedImage{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
	}, nil
}
