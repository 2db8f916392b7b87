package model

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"canvaschat/config"
)

// DefaultGreeting is shown whenever the active conversation has no messages.
const DefaultGreeting = "Hi! I'm your research assistant. Ask me anything about your notes, or drop an image on the canvas and I'll take a look."

// placeholderContent stands in when a finalized turn trims to nothing.
const placeholderContent = "(no response)"

// TurnState describes where the store is in the submit-to-finalize cycle.
type TurnState int

const (
	StateIdle TurnState = iota
	StateAwaitingResponse
	StateStreaming
)

func (s TurnState) String() string {
	switch s {
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

// PersistFunc receives the persisted subset of store state after every
// mutating operation.
type PersistFunc func(PersistedState)

// ChatStore owns the active message list, the conversation collection, and
// the single in-flight streaming turn. All stream-buffer mutation goes
// through the append/upsert methods below; no other component touches the
// transient state directly.
type ChatStore struct {
	mu sync.Mutex

	greeting string

	messages      []Message
	conversations []Conversation
	currentID     string

	isLoading    bool
	isStreaming  bool
	reasoningBuf strings.Builder
	contentBuf   strings.Builder
	toolCalls    []ToolCall

	persist PersistFunc

	// Injectable clock for deterministic conversation ids/titles in tests.
	now func() time.Time
}

// NewChatStore creates a store with an empty collection and the greeting as
// the only active message.
func NewChatStore(greeting string) *ChatStore {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	s := &ChatStore{
		greeting: greeting,
		now:      time.Now,
	}
	s.messages = []Message{s.greetingMessage()}
	return s
}

// SetPersistFunc registers the hook invoked after each mutating operation.
func (s *ChatStore) SetPersistFunc(fn PersistFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = fn
}

func (s *ChatStore) greetingMessage() Message {
	return Message{Role: RoleAssistant, Content: s.greeting, Timestamp: s.now()}
}

// State derives the turn state from the loading/streaming flags. At most one
// flag is ever set.
func (s *ChatStore) State() TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.isStreaming:
		return StateStreaming
	case s.isLoading:
		return StateAwaitingResponse
	default:
		return StateIdle
	}
}

// Messages returns a copy of the active message list.
func (s *ChatStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Conversations returns a copy of the stored conversation collection,
// in insertion order.
func (s *ChatStore) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// CurrentConversationID returns the current conversation id, or "" when no
// conversation has been started.
func (s *ChatStore) CurrentConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// StreamSnapshot returns the live transient state for rendering.
func (s *ChatStore) StreamSnapshot() (loading, streaming bool, reasoning, content string, toolCalls []ToolCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc := make([]ToolCall, len(s.toolCalls))
	copy(tc, s.toolCalls)
	return s.isLoading, s.isStreaming, s.reasoningBuf.String(), s.contentBuf.String(), tc
}

// BeginTurn moves the store from Idle to AwaitingResponse and clears the
// stream buffers. A turn already in flight rejects the submit.
func (s *ChatStore) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isLoading || s.isStreaming {
		return fmt.Errorf("a turn is already in flight")
	}
	s.isLoading = true
	s.clearStreamLocked()
	return nil
}

// MarkStreaming records that the streaming response was accepted.
func (s *ChatStore) MarkStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isLoading {
		return
	}
	s.isLoading = false
	s.isStreaming = true
}

// ResetStreamBuffers discards partial streamed output after a mid-stream
// failure, returning the turn to AwaitingResponse so the fallback request
// can complete it. Partial output is never merged with the fallback response.
func (s *ChatStore) ResetStreamBuffers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearStreamLocked()
	if s.isStreaming {
		s.isStreaming = false
		s.isLoading = true
	}
}

func (s *ChatStore) clearStreamLocked() {
	s.reasoningBuf.Reset()
	s.contentBuf.Reset()
	s.toolCalls = nil
}

// AppendReasoning appends a reasoning chunk to the live buffer.
func (s *ChatStore) AppendReasoning(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasoningBuf.WriteString(chunk)
}

// AppendContent appends a content chunk to the live buffer.
func (s *ChatStore) AppendContent(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentBuf.WriteString(chunk)
}

// UpsertToolCall adds a tool call or updates the existing record with the
// same name. Keying by name means two concurrent calls to one tool collapse
// into a single record within a turn; that matches the wire contract, which
// carries no per-invocation id.
func (s *ChatStore) UpsertToolCall(name, status, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.toolCalls {
		if s.toolCalls[i].Name == name {
			s.toolCalls[i].Status = status
			if result != "" {
				s.toolCalls[i].Result = result
			}
			return
		}
	}
	if status == "" {
		status = ToolStatusCalling
	}
	s.toolCalls = append(s.toolCalls, ToolCall{
		ID:     uuid.New().String(),
		Name:   name,
		Status: status,
		Result: result,
	})
}

// AddUserMessage appends a user message to the active conversation, creating
// the conversation on the first user message of a session. The title is fixed
// at creation time and never auto-changed afterward.
func (s *ChatStore) AddUserMessage(text string, attachments []Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.currentID == "" {
		s.currentID = fmt.Sprintf("conv-%d", now.UnixMilli())
		s.conversations = append(s.conversations, Conversation{
			ID:        s.currentID,
			Title:     "New chat " + now.Format("15:04"),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Store] Created conversation %s", s.currentID)
		}
	}

	s.messages = append(s.messages, Message{
		Role:        RoleUser,
		Content:     text,
		Attachments: attachments,
		Timestamp:   now,
	})
	s.upsertConversationLocked(now)
	s.persistLocked()
}

// Finalize converts the stream buffers into one assistant message and clears
// all transient state. Calling it with empty buffers and no pending tool
// calls is a no-op, which makes double-finalize safe on every completion path.
func (s *ChatStore) Finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	reasoning := strings.TrimSpace(s.reasoningBuf.String())
	content := strings.TrimSpace(s.contentBuf.String())
	toolCalls := s.toolCalls

	if reasoning == "" && content == "" && len(toolCalls) == 0 {
		s.isLoading = false
		s.isStreaming = false
		return
	}

	// Legacy servers stream the reasoning inline in the content channel.
	if reasoning == "" {
		if inner, ok := ExtractThinking(content); ok {
			reasoning = strings.TrimSpace(inner)
			content = strings.TrimSpace(StripThinking(content))
		}
	}
	if content == "" {
		content = placeholderContent
	}

	now := s.now()
	s.messages = append(s.messages, Message{
		Role:      RoleAssistant,
		Content:   content,
		Reasoning: reasoning,
		ToolCalls: toolCalls,
		Timestamp: now,
	})
	s.clearStreamLocked()
	s.isLoading = false
	s.isStreaming = false
	s.upsertConversationLocked(now)
	s.persistLocked()
}

// FinalizeError ends the turn as failed: the error text becomes the assistant
// message content and all transient state is cleared. Used both for explicit
// error frames and for a failed fallback request.
func (s *ChatStore) FinalizeError(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.messages = append(s.messages, Message{
		Role:      RoleAssistant,
		Content:   text,
		Timestamp: now,
	})
	s.clearStreamLocked()
	s.isLoading = false
	s.isStreaming = false
	s.upsertConversationLocked(now)
	s.persistLocked()
}

// LoadConversation replaces the active message list with the stored
// conversation's messages and makes it current. Unknown ids are a no-op.
func (s *ChatStore) LoadConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.findLocked(id)
	if !ok {
		return
	}
	if len(conv.Messages) > 0 {
		s.messages = make([]Message, len(conv.Messages))
		copy(s.messages, conv.Messages)
	} else {
		s.messages = []Message{s.greetingMessage()}
	}
	s.currentID = id
	s.clearStreamLocked()
	s.isLoading = false
	s.isStreaming = false
	s.persistLocked()
}

// DeleteConversation removes a conversation from the collection. Deleting the
// current conversation resets the active list to the greeting.
func (s *ChatStore) DeleteConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.conversations[:0]
	found := false
	for _, c := range s.conversations {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	s.conversations = kept

	if s.currentID == id {
		s.currentID = ""
		s.messages = []Message{s.greetingMessage()}
	}
	s.persistLocked()
}

// StartNewChat resets the active messages to the greeting and clears the
// current id without touching the stored collection.
func (s *ChatStore) StartNewChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = []Message{s.greetingMessage()}
	s.currentID = ""
	s.clearStreamLocked()
	s.isLoading = false
	s.isStreaming = false
	s.persistLocked()
}

// RenameConversation updates the title of a stored conversation. Unknown ids
// are a no-op.
func (s *ChatStore) RenameConversation(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations[i].Title = title
			s.conversations[i].UpdatedAt = s.now()
			s.persistLocked()
			return
		}
	}
}

// MessageAttachments returns the attachments of the active message list in
// message order. Input to the attachment context builder.
func (s *ChatStore) MessageAttachments() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Attachment
	for _, m := range s.messages {
		out = append(out, m.Attachments...)
	}
	return out
}

// Snapshot returns the persisted subset of the store state.
func (s *ChatStore) Snapshot() PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Restore replaces the persisted subset and resets all transient state to
// its initial values, as on process reload.
func (s *ChatStore) Restore(st PersistedState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = st.Messages
	s.conversations = st.Conversations
	s.currentID = st.CurrentConversationID

	// The current id must reference a stored conversation or be empty.
	if s.currentID != "" {
		if _, ok := s.findLocked(s.currentID); !ok {
			s.currentID = ""
		}
	}
	if len(s.messages) == 0 {
		s.messages = []Message{s.greetingMessage()}
	}
	s.clearStreamLocked()
	s.isLoading = false
	s.isStreaming = false
}

func (s *ChatStore) snapshotLocked() PersistedState {
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	convs := make([]Conversation, len(s.conversations))
	copy(convs, s.conversations)
	return PersistedState{
		Messages:              msgs,
		Conversations:         convs,
		CurrentConversationID: s.currentID,
	}
}

func (s *ChatStore) findLocked(id string) (Conversation, bool) {
	for _, c := range s.conversations {
		if c.ID == id {
			return c, true
		}
	}
	return Conversation{}, false
}

// upsertConversationLocked replaces the whole record for the current
// conversation, keyed by id rather than position. Appends that arrive
// discontinuously (the fallback path resuming a streamed conversation)
// therefore never duplicate a record.
func (s *ChatStore) upsertConversationLocked(now time.Time) {
	if s.currentID == "" {
		return
	}

	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)

	for i := range s.conversations {
		if s.conversations[i].ID == s.currentID {
			s.conversations[i].Messages = msgs
			s.conversations[i].UpdatedAt = now
			return
		}
	}
	s.conversations = append(s.conversations, Conversation{
		ID:        s.currentID,
		Title:     "New chat " + now.Format("15:04"),
		Messages:  msgs,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *ChatStore) persistLocked() {
	if s.persist == nil {
		return
	}
	s.persist(s.snapshotLocked())
}
