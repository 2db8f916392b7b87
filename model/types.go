package model

import "time"

// Message roles. The chat core only ever produces these two; the greeting
// shown for an empty conversation is an ordinary assistant message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Attachment kinds.
const (
	AttachmentKindImage = "image"
)

// Tool call lifecycle statuses. A call starts in "calling" and moves toward
// "completed" or "error"; updates are last-writer-wins per tool name.
const (
	ToolStatusCalling   = "calling"
	ToolStatusExecuting = "executing"
	ToolStatusCompleted = "completed"
	ToolStatusError     = "error"
)

// Attachment is an image attached to a message, or held pending before a
// message exists. Immutable once created.
type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Payload    string    `json:"payload"` // data URI
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ToolCall records one tool invocation reconstructed from stream events.
// The core never executes tools; it only tracks what the server reports.
type ToolCall struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
}

// Message represents a chat message in the conversation. Created once,
// never edited in place after it has been appended.
type Message struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Reasoning   string       `json:"reasoning,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Conversation is a named, persisted message sequence.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersistedState is the subset of store state that survives a reload.
// Transient streaming fields are deliberately absent.
type PersistedState struct {
	Messages              []Message      `json:"messages"`
	Conversations         []Conversation `json:"conversations"`
	CurrentConversationID string         `json:"currentConversationId"`
}
