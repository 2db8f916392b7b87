package client

// ChatRequest is the outbound payload shared by the streaming and
// non-streaming endpoints.
type ChatRequest struct {
	Prompt          string        `json:"prompt"`
	DocumentContext string        `json:"document_context,omitempty"`
	ContentParts    []ContentPart `json:"content_parts"`
}

// ContentPart is one structured part of the request: a text section or an
// inline image.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// ChatResponse is the non-streaming endpoint's reply.
type ChatResponse struct {
	Response  string `json:"response"`
	Reasoning string `json:"reasoning,omitempty"`
}

// DocumentSource is the read-only accessor supplied by the surrounding
// editor: "content of the currently selected document", or empty.
type DocumentSource func() string
