package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the generateContent REST endpoint directly.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	textModel  string
	imageModel string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		textModel:  firstNonEmpty(opts.TextModel, DefaultTextModel),
		imageModel: firstNonEmpty(opts.ImageModel, DefaultImageModel),
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// GenerateText sends one instruction plus ordered content parts and returns the
// concatenated text of the first candidate.
func (c *Client) GenerateText(ctx context.Context, instruction string, parts []Part) (string, error) {
	req := generateContentRequest{
		Contents:         []content{{Role: "user", Parts: toWireParts(parts)}},
		GenerationConfig: generationConfig{Temperature: 0.7},
	}
	if strings.TrimSpace(instruction) != "" {
		req.SystemInstruction = &content{Role: "user", Parts: []part{{Text: instruction}}}
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}

	text, _ := extractParts(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateImage requests exactly one image for prompt at the given aspect ratio.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Image{}, errors.New("prompt is empty")
	}

	req := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
			CandidateCount:     1,
		},
	}
	if aspectRatio != "" {
		req.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: aspectRatio}
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil && req.GenerationConfig.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		c.logger.Warn("imageConfig rejected, retrying without aspect ratio", "model", c.imageModel)
		req.GenerationConfig.ImageConfig = nil
		resp, err = c.generateContent(ctx, c.imageModel, req)
	}
	if err != nil {
		return Image{}, err
	}

	_, images := extractParts(resp)
	if len(images) == 0 {
		return Image{}, ErrNoImage
	}
	return images[0], nil
}

func toWireParts(parts []Part) []part {
	out := make([]part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.Image != nil:
			out = append(out, part{InlineData: &blob{
				Data:     stripDataURLPrefix(p.Image.Data),
				MimeType: p.Image.MimeType,
			}})
		case p.Text != "":
			out = append(out, part{Text: p.Text})
		}
	}
	return out
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (generateContentResponse, error) {
	if c.httpClient == nil {
		return generateContentResponse{}, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return generateContentResponse{}, &APIError{Status: httpResp.Status, Body: strings.TrimSpace(string(rawBody))}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return generateContentResponse{}, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("gemini response", "model", model, "candidates", len(decoded.Candidates))
	return decoded, nil
}

func extractParts(resp generateContentResponse) (string, []Image) {
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var textBuilder strings.Builder
	var images []Image

	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData != nil && p.InlineData.Data != "" {
			mimeType := p.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			images = append(images, Image{MimeType: mimeType, Data: p.InlineData.Data})
		}
	}

	return textBuilder.String(), images
}

type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64      `json:"temperature,omitempty"`
	CandidateCount     int          `json:"candidateCount,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

var dataURLRegex = regexp.MustCompile(`^data:([^;]+);base64,`)

// ParseDataURL splits a data URL into an Image. A bare base64 string gets fallbackMime.
func ParseDataURL(value string, fallbackMime string) (Image, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Image{}, false
	}

	mime := fallbackMime
	if matches := dataURLRegex.FindStringSubmatch(value); len(matches) == 2 {
		mime = matches[1]
	}

	data := stripDataURLPrefix(value)
	if data == "" {
		return Image{}, false
	}

	return Image{MimeType: mime, Data: data}, true
}

func stripDataURLPrefix(value string) string {
	if !strings.HasPrefix(value, "data:") {
		return value
	}
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

func isUnknownFieldError(err error, field string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.Body, "Unknown name") && strings.Contains(apiErr.Body, field)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
