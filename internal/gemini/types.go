package gemini

import (
	"errors"
	"fmt"
)

var (
	// ErrNoImage is returned when the service answered but carried no image data.
	ErrNoImage = errors.New("no image returned")
	// ErrEmptyResponse is returned when a text request produced no text.
	ErrEmptyResponse = errors.New("empty response")
)

// Part is one ordered item of a multi-part request: either text or an inline image.
type Part struct {
	Text  string
	Image *Image
}

// Image is an inline image payload. Data is base64 without a data URL prefix.
type Image struct {
	MimeType string
	Data     string
}

func (img Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MimeType, img.Data)
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(img Image) Part {
	return Part{Image: &img}
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API %s: %s", e.Status, e.Body)
}
