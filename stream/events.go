// Package stream decodes the assistant wire protocol and folds the decoded
// events into live turn buffers.
//
// The wire format is an event-stream of frames separated by a blank line.
// Each frame carries one payload line:
//
//	data: {"type":"content","content":"chunk text"}
//
// Frame types: "reasoning" and "content" carry text chunks on parallel
// channels, "tool_call" reports tool lifecycle updates, "done" terminates a
// successful turn, "error" terminates a failed one.
package stream

// EventType discriminates decoded frames.
type EventType string

const (
	EventReasoning EventType = "reasoning"
	EventContent   EventType = "content"
	EventToolCall  EventType = "tool_call"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Event is one decoded frame.
type Event struct {
	Type EventType

	// Text carries the chunk for reasoning/content events and the
	// human-readable message for error events.
	Text string

	// Tool call fields, set only for EventToolCall.
	Name   string
	Status string
	Result string
}
