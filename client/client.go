// Package client owns the request/response lifecycle of one chat turn:
// streaming endpoint first, non-streaming fallback when the stream cannot be
// established or dies before completing.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"canvaschat/config"
	"canvaschat/model"
	"canvaschat/stream"
)

// connectFailureText is appended as an ordinary assistant message when both
// the streaming and fallback requests fail.
const connectFailureText = "Unable to reach the assistant service. Check that the companion server is running and try again."

const defaultTimeout = 120 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the companion server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client-level timeout: streaming responses stay open for the
		// whole turn. Per-turn deadlines come from the caller's context.
		httpClient: &http.Client{},
	}
}

// Send runs one complete turn: appends the user message, attempts the
// streaming endpoint, and falls back to the non-streaming endpoint when the
// stream cannot complete. Every outcome, including total failure, ends with
// the turn finalized and an assistant message appended; errors are only
// returned for caller mistakes (a submit while a turn is in flight).
//
// Cancelling ctx mid-stream finalizes with whatever was buffered so the
// partial turn is not silently lost.
func (c *Client) Send(ctx context.Context, store *model.ChatStore, prompt string, pending []model.Attachment, docs DocumentSource) error {
	if err := store.BeginTurn(); err != nil {
		return err
	}
	store.AddUserMessage(prompt, pending)

	req := c.buildRequest(store, prompt, pending, docs)

	handled, err := c.streamTurn(ctx, store, req)
	if handled {
		return nil
	}
	if err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Client] Streaming attempt failed, falling back: %v", err)
	}

	c.fallbackTurn(ctx, store, req)
	return nil
}

// buildRequest assembles the outbound payload: combined document/image
// context, the raw prompt, and one inline image part per pending attachment.
func (c *Client) buildRequest(store *model.ChatStore, prompt string, pending []model.Attachment, docs DocumentSource) ChatRequest {
	var sections []string
	if docs != nil {
		if doc := docs(); doc != "" {
			sections = append(sections, doc)
		}
	}
	if imgCtx := model.BuildAttachmentContext(store.MessageAttachments(), pending); imgCtx != "" {
		sections = append(sections, imgCtx)
	}
	docContext := strings.Join(sections, "\n\n")

	var parts []ContentPart
	if docContext != "" {
		parts = append(parts, ContentPart{Type: "text", Text: docContext})
	}
	parts = append(parts, ContentPart{Type: "text", Text: prompt})
	for _, a := range pending {
		parts = append(parts, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: a.Payload},
		})
	}

	return ChatRequest{
		Prompt:          prompt,
		DocumentContext: docContext,
		ContentParts:    parts,
	}
}

// streamTurn attempts the streaming endpoint. It reports handled=true when
// the turn was finalized on this path (success, explicit server error, or
// cancellation); handled=false means the fallback should run.
func (c *Client) streamTurn(ctx context.Context, store *model.ChatStore, req ChatRequest) (handled bool, err error) {
	body, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("streaming request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("streaming endpoint returned %s", resp.Status)
	}

	store.MarkStreaming()

	dec := stream.NewDecoder(resp.Body)
	agg := stream.NewAggregator(store)

	for {
		ev, decErr := dec.Next()
		if decErr != nil {
			if errors.Is(decErr, io.EOF) {
				break
			}
			// Read failure mid-stream. A cancelled context is a caller
			// abort: finalize with what was buffered instead of retrying.
			if ctx.Err() != nil {
				store.Finalize()
				return true, nil
			}
			store.ResetStreamBuffers()
			return false, fmt.Errorf("read stream: %w", decErr)
		}
		agg.Apply(ev)
		if agg.Done() {
			break
		}
		if _, failed := agg.Failed(); failed {
			break
		}
	}

	if errText, failed := agg.Failed(); failed {
		// The server explicitly reported failure; a retry through the
		// fallback endpoint is not assumed safe.
		store.FinalizeError(errText)
		return true, nil
	}
	if agg.Done() {
		store.Finalize()
		return true, nil
	}

	// Natural end-of-stream without a done frame: accumulated output is
	// treated as an implicit successful completion. A stream that carried
	// nothing at all falls back.
	if c.hasBufferedOutput(store) {
		store.Finalize()
		return true, nil
	}

	store.ResetStreamBuffers()
	return false, fmt.Errorf("stream ended before any output arrived")
}

func (c *Client) hasBufferedOutput(store *model.ChatStore) bool {
	_, _, reasoning, content, toolCalls := store.StreamSnapshot()
	return reasoning != "" || content != "" || len(toolCalls) > 0
}

// fallbackTurn issues the non-streaming request and finalizes the turn with
// its result, or with a synthetic connection-failure message when that also
// fails. Always the last resort; never merged with partial streamed output.
func (c *Client) fallbackTurn(ctx context.Context, store *model.ChatStore, req ChatRequest) {
	body, err := json.Marshal(req)
	if err != nil {
		store.FinalizeError(connectFailureText)
		return
	}

	fbCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		fbCtx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(fbCtx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		store.FinalizeError(connectFailureText)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Client] Fallback request failed: %v", err)
		}
		store.FinalizeError(connectFailureText)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Client] Fallback endpoint returned %s", resp.Status)
		}
		store.FinalizeError(connectFailureText)
		return
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Client] Failed to decode fallback response: %v", err)
		}
		store.FinalizeError(connectFailureText)
		return
	}

	// Funnel the response through the turn buffers so finalize applies the
	// same trimming and inline-thinking extraction as the streaming path.
	store.AppendReasoning(chatResp.Reasoning)
	store.AppendContent(chatResp.Response)
	store.Finalize()
}
