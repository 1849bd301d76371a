package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func TestGenerateTextSendsInstructionAndParts(t *testing.T) {
	var got generateContentRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/"+DefaultTextModel+":generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"hello "},{"text":"world"}]}}]}`)
	})

	text, err := c.GenerateText(context.Background(), "be brief", []Part{
		TextPart("describe"),
		ImagePart(Image{MimeType: "image/png", Data: "data:image/png;base64,QUJD"}),
	})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("system instruction not sent: %+v", got.SystemInstruction)
	}
	parts := got.Contents[0].Parts
	if len(parts) != 2 || parts[0].Text != "describe" || parts[1].InlineData == nil {
		t.Fatalf("parts = %+v", parts)
	}
	if parts[1].InlineData.Data != "QUJD" {
		t.Errorf("data url prefix not stripped: %q", parts[1].InlineData.Data)
	}
}

func TestGenerateTextEmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})
	_, err := c.GenerateText(context.Background(), "", []Part{TextPart("x")})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestGenerateImage(t *testing.T) {
	t.Run("returns first inline image", func(t *testing.T) {
		var got generateContentRequest
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"UE5H"}}]}}]}`)
		})
		img, err := c.GenerateImage(context.Background(), "a candle", "4:3")
		if err != nil {
			t.Fatalf("GenerateImage: %v", err)
		}
		if img.Data != "UE5H" || img.MimeType != "image/png" {
			t.Errorf("img = %+v", img)
		}
		if got.GenerationConfig.ImageConfig == nil || got.GenerationConfig.ImageConfig.AspectRatio != "4:3" {
			t.Errorf("aspect ratio not sent: %+v", got.GenerationConfig)
		}
	})

	t.Run("no image is distinct from transport failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`)
		})
		_, err := c.GenerateImage(context.Background(), "a candle", "16:9")
		if !errors.Is(err, ErrNoImage) {
			t.Fatalf("err = %v, want ErrNoImage", err)
		}
	})

	t.Run("api error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota", http.StatusTooManyRequests)
		})
		_, err := c.GenerateImage(context.Background(), "a candle", "16:9")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("err = %v, want *APIError", err)
		}
		if errors.Is(err, ErrNoImage) {
			t.Error("transport failure must not look like ErrNoImage")
		}
	})

	t.Run("retries without imageConfig when unknown", func(t *testing.T) {
		var calls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req generateContentRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if atomic.AddInt32(&calls, 1) == 1 {
				if req.GenerationConfig.ImageConfig == nil {
					t.Error("first call should carry imageConfig")
				}
				http.Error(w, `Invalid JSON payload. Unknown name "imageConfig"`, http.StatusBadRequest)
				return
			}
			if req.GenerationConfig.ImageConfig != nil {
				t.Error("retry should drop imageConfig")
			}
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/jpeg","data":"SlBH"}}]}}]}`)
		})
		img, err := c.GenerateImage(context.Background(), "a candle", "16:9")
		if err != nil {
			t.Fatalf("GenerateImage: %v", err)
		}
		if img.MimeType != "image/jpeg" || atomic.LoadInt32(&calls) != 2 {
			t.Errorf("img = %+v calls = %d", img, calls)
		}
	})
}

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		in       string
		wantMime string
		wantData string
		ok       bool
	}{
		{"data:image/webp;base64,AAAA", "image/webp", "AAAA", true},
		{"BBBB", "image/jpeg", "BBBB", true},
		{"  ", "", "", false},
	}
	for _, tt := range tests {
		img, ok := ParseDataURL(tt.in, "image/jpeg")
		if ok != tt.ok {
			t.Errorf("ParseDataURL(%q) ok = %v", tt.in, ok)
			continue
		}
		if ok && (img.MimeType != tt.wantMime || img.Data != tt.wantData) {
			t.Errorf("ParseDataURL(%q) = %+v", tt.in, img)
		}
	}
	if got := (Image{MimeType: "image/png", Data: "QQ=="}).DataURL(); !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("DataURL = %q", got)
	}
}
