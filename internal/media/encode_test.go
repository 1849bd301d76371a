package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// 1x1 PNG.
var pngBytes, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mP8/x8AAwMB/6X+ZQAAAABJRU5ErkJggg==")

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestEncode(t *testing.T) {
	ctx := context.Background()

	t.Run("sniffs png", func(t *testing.T) {
		img, err := Encode(ctx, bytes.NewReader(pngBytes), "application/octet-stream")
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if img.MimeType != "image/png" {
			t.Errorf("mime = %q", img.MimeType)
		}
		if img.Data != base64.StdEncoding.EncodeToString(pngBytes) {
			t.Error("data is not the base64 of the input")
		}
	})

	t.Run("keeps declared type", func(t *testing.T) {
		img, err := Encode(ctx, bytes.NewReader(pngBytes), "image/webp; charset=binary")
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if img.MimeType != "image/webp" {
			t.Errorf("mime = %q", img.MimeType)
		}
	})

	tests := []struct {
		name string
		r    io.Reader
		hint string
		want error
	}{
		{"empty", bytes.NewReader(nil), "", ErrEmpty},
		{"text", strings.NewReader("just some words"), "", ErrNotImage},
		{"too large", io.LimitReader(zeroReader{}, MaxImageBytes+10), "image/png", ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(ctx, tt.r, tt.hint)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("read failure", func(t *testing.T) {
		_, err := Encode(ctx, failingReader{}, "")
		if err == nil || !strings.Contains(err.Error(), "disk on fire") {
			t.Fatalf("err = %v", err)
		}
	})
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestEncodeFileAndLazy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, pngBytes, 0o600); err != nil {
		t.Fatal(err)
	}

	img, err := EncodeFile(context.Background(), path)
	if err != nil || img.MimeType != "image/png" {
		t.Fatalf("EncodeFile = %+v, %v", img, err)
	}

	opened := false
	lazy := Lazy(func() (io.ReadCloser, error) {
		opened = true
		return os.Open(path)
	}, "")
	if opened {
		t.Fatal("Lazy must not open before being called")
	}
	got, err := lazy(context.Background())
	if err != nil || got != img {
		t.Fatalf("lazy = %+v, %v", got, err)
	}

	_, err = EncodeFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromDataURL(t *testing.T) {
	img, err := FromDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes))
	if err != nil || img.MimeType != "image/png" {
		t.Fatalf("FromDataURL = %+v, %v", img, err)
	}

	img, err = FromDataURL(base64.StdEncoding.EncodeToString(pngBytes))
	if err != nil || img.MimeType != "image/png" {
		t.Fatalf("bare base64 = %+v, %v", img, err)
	}

	if _, err := FromDataURL("data:image/png;base64,%%%"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := FromDataURL(""); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}
