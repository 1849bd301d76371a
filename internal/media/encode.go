// Package media turns user supplied image files into inline request payloads.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/tamirka/ainario/internal/gemini"
)

const MaxImageBytes = 20 << 20

var (
	ErrEmpty    = errors.New("image is empty")
	ErrTooLarge = errors.New("image is too large")
	ErrNotImage = errors.New("file is not an image")
)

// Encode reads r fully and returns it as a base64 inline image.
// mimeHint is the declared content type, if any; it is checked against the sniffed one.
func Encode(ctx context.Context, r io.Reader, mimeHint string) (gemini.Image, error) {
	if err := ctx.Err(); err != nil {
		return gemini.Image{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return gemini.Image{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return gemini.Image{}, ErrEmpty
	}
	if len(data) > MaxImageBytes {
		return gemini.Image{}, ErrTooLarge
	}

	mimeType := DetectMimeType(mimeHint, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return gemini.Image{}, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}

	return gemini.Image{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

func EncodeFile(ctx context.Context, path string) (gemini.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return gemini.Image{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return Encode(ctx, f, "")
}

// Lazy defers opening and encoding until the image is needed.
func Lazy(open func() (io.ReadCloser, error), mimeHint string) func(context.Context) (gemini.Image, error) {
	return func(ctx context.Context) (gemini.Image, error) {
		rc, err := open()
		if err != nil {
			return gemini.Image{}, fmt.Errorf("open image: %w", err)
		}
		defer rc.Close()
		return Encode(ctx, rc, mimeHint)
	}
}

// Ready wraps an already encoded image in the same lazy shape.
func Ready(img gemini.Image) func(context.Context) (gemini.Image, error) {
	return func(context.Context) (gemini.Image, error) {
		return img, nil
	}
}

// FromDataURL validates a data URL (or bare base64) coming from a JSON client.
func FromDataURL(value string) (gemini.Image, error) {
	img, ok := gemini.ParseDataURL(value, "")
	if !ok {
		return gemini.Image{}, ErrEmpty
	}

	raw, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return gemini.Image{}, fmt.Errorf("decode base64: %w", err)
	}
	if len(raw) > MaxImageBytes {
		return gemini.Image{}, ErrTooLarge
	}

	img.MimeType = DetectMimeType(img.MimeType, raw)
	if !strings.HasPrefix(img.MimeType, "image/") {
		return gemini.Image{}, fmt.Errorf("%w: %s", ErrNotImage, img.MimeType)
	}
	return img, nil
}

// DetectMimeType prefers a concrete declared type and falls back to sniffing, then image/jpeg.
func DetectMimeType(declared string, data []byte) string {
	mimeType := cleanMime(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = cleanMime(http.DetectContentType(data))
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

func cleanMime(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, ";") {
		value = strings.TrimSpace(strings.SplitN(value, ";", 2)[0])
	}
	return strings.ToLower(value)
}
