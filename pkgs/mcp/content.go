package mcp

import (
	"encoding/json"
	"fmt"
)

// Content type discriminants.
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeResource = "resource"
)

// A Content is one item of a tool result.
// The set of implementations is closed.
type Content interface {
	Type() string
	isContent()
}

// Contents is an ordered list of Content.
type Contents []Content

// TextContent holds text.
type TextContent struct {
	Text string
}

// Type implements Content.
func (*TextContent) Type() string { return ContentTypeText }
func (*TextContent) isContent()   {}

// MarshalJSON implements json.Marshaler.
func (c *TextContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{
		Type: ContentTypeText,
		Text: c.Text,
	})
}

// ImageContent holds base64 encoded image data.
type ImageContent struct {
	Data     string
	MIMEType string
}

// Type implements Content.
func (*ImageContent) Type() string { return ContentTypeImage }
func (*ImageContent) isContent()   {}

// MarshalJSON implements json.Marshaler.
func (c *ImageContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		Data     string `json:"data"`
		MIMEType string `json:"mimeType"`
	}{
		Type:     ContentTypeImage,
		Data:     c.Data,
		MIMEType: c.MIMEType,
	})
}

// ResourceContents are the contents of an embedded resource.
type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// EmbeddedResource embeds a resource in a result.
type EmbeddedResource struct {
	Resource ResourceContents
}

// Type implements Content.
func (*EmbeddedResource) Type() string { return ContentTypeResource }
func (*EmbeddedResource) isContent()   {}

// MarshalJSON implements json.Marshaler.
func (c *EmbeddedResource) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string           `json:"type"`
		Resource ResourceContents `json:"resource"`
	}{
		Type:     ContentTypeResource,
		Resource: c.Resource,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Contents) UnmarshalJSON(data []byte) error {

	raws := []json.RawMessage{}
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(Contents, 0, len(raws))

	for i, raw := range raws {

		item := struct {
			Type     string           `json:"type"`
			Text     string           `json:"text"`
			Data     string           `json:"data"`
			MIMEType string           `json:"mimeType"`
			Resource ResourceContents `json:"resource"`
		}{}

		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("unable to decode content %d: %w", i, err)
		}

		switch item.Type {
		case ContentTypeText:
			out = append(out, &TextContent{Text: item.Text})
		case ContentTypeImage:
			out = append(out, &ImageContent{Data: item.Data, MIMEType: item.MIMEType})
		case ContentTypeResource:
			out = append(out, &EmbeddedResource{Resource: item.Resource})
		default:
			return fmt.Errorf("unable to decode content %d: unknown type '%s'", i, item.Type)
		}
	}

	*l = out

	return nil
}

// NewTextContents returns Contents holding a
// single TextContent with the given text.
func NewTextContents(text string) Contents {
	return Contents{&TextContent{Text: text}}
}
