package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const DefaultImagenModel = "imagen-4.0-generate-001"

type SDKOptions struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// SDKClient serves the same two operations as Client through the genai SDK.
// Images come from the Imagen generateImages endpoint instead of generateContent.
type SDKClient struct {
	client     *genai.Client
	textModel  string
	imageModel string
	logger     *slog.Logger
}

func NewSDK(ctx context.Context, opts SDKOptions) (*SDKClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("api key is empty")
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &SDKClient{
		client:     client,
		textModel:  firstNonEmpty(opts.TextModel, DefaultTextModel),
		imageModel: firstNonEmpty(opts.ImageModel, DefaultImagenModel),
		logger:     logger,
	}, nil
}

func (c *SDKClient) GenerateText(ctx context.Context, instruction string, parts []Part) (string, error) {
	sdkParts, err := toSDKParts(parts)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.7)),
	}
	if strings.TrimSpace(instruction) != "" {
		config.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel,
		[]*genai.Content{genai.NewContentFromParts(sdkParts, genai.RoleUser)}, config)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *SDKClient) GenerateImage(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Image{}, errors.New("prompt is empty")
	}

	resp, err := c.client.Models.GenerateImages(ctx, c.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/png",
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		return Image{}, err
	}

	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			if generated != nil && generated.RAIFilteredReason != "" {
				c.logger.Warn("image filtered", "reason", generated.RAIFilteredReason)
			}
			continue
		}
		mimeType := generated.Image.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return Image{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(generated.Image.ImageBytes),
		}, nil
	}
	return Image{}, ErrNoImage
}

func toSDKParts(parts []Part) ([]*genai.Part, error) {
	out := make([]*genai.Part, 0, len(parts))
	for i, p := range parts {
		switch {
		case p.Image != nil:
			data, err := base64.StdEncoding.DecodeString(stripDataURLPrefix(p.Image.Data))
			if err != nil {
				return nil, fmt.Errorf("part %d: decode image: %w", i, err)
			}
			out = append(out, genai.NewPartFromBytes(data, p.Image.MimeType))
		case p.Text != "":
			out = append(out, genai.NewPartFromText(p.Text))
		}
	}
	return out, nil
}
