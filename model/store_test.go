package model

import (
	"testing"
	"time"
)

func newTestStore() *ChatStore {
	s := NewChatStore("")
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestNewChatStoreShowsGreeting(t *testing.T) {
	s := NewChatStore("custom greeting")

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("message count: got %d, want 1", len(msgs))
	}
	if msgs[0].Role != RoleAssistant {
		t.Errorf("role: got %q, want %q", msgs[0].Role, RoleAssistant)
	}
	if msgs[0].Content != "custom greeting" {
		t.Errorf("content: got %q", msgs[0].Content)
	}
	if s.CurrentConversationID() != "" {
		t.Errorf("current id: got %q, want empty", s.CurrentConversationID())
	}
}

func TestFirstUserMessageCreatesConversation(t *testing.T) {
	s := newTestStore()

	s.AddUserMessage("first question", nil)

	convs := s.Conversations()
	if len(convs) != 1 {
		t.Fatalf("conversation count: got %d, want 1", len(convs))
	}
	if convs[0].ID != s.CurrentConversationID() {
		t.Errorf("current id %q does not match stored conversation %q", s.CurrentConversationID(), convs[0].ID)
	}
	if convs[0].Title == "" {
		t.Error("conversation title is empty")
	}

	// A second message in the same session must not create another record.
	s.AddUserMessage("second question", nil)
	if got := len(s.Conversations()); got != 1 {
		t.Errorf("conversation count after second message: got %d, want 1", got)
	}
}

func TestTitleFixedAtCreation(t *testing.T) {
	s := newTestStore()

	s.AddUserMessage("hello", nil)
	title := s.Conversations()[0].Title

	s.AppendContent("an answer")
	s.Finalize()
	s.AddUserMessage("another", nil)

	if got := s.Conversations()[0].Title; got != title {
		t.Errorf("title changed: got %q, want %q", got, title)
	}
}

func TestTurnStateTransitions(t *testing.T) {
	s := newTestStore()

	if s.State() != StateIdle {
		t.Fatalf("initial state: got %v, want %v", s.State(), StateIdle)
	}

	if err := s.BeginTurn(); err != nil {
		t.Fatalf("BeginTurn: %v", err)
	}
	if s.State() != StateAwaitingResponse {
		t.Errorf("after BeginTurn: got %v, want %v", s.State(), StateAwaitingResponse)
	}

	if err := s.BeginTurn(); err == nil {
		t.Error("second BeginTurn succeeded, want rejection")
	}

	s.MarkStreaming()
	if s.State() != StateStreaming {
		t.Errorf("after MarkStreaming: got %v, want %v", s.State(), StateStreaming)
	}

	s.AppendContent("answer")
	s.Finalize()
	if s.State() != StateIdle {
		t.Errorf("after Finalize: got %v, want %v", s.State(), StateIdle)
	}
}

func TestFinalizeExtractsInlineThinking(t *testing.T) {
	tests := []struct {
		name          string
		reasoning     string
		content       string
		wantReasoning string
		wantContent   string
	}{
		{
			name:          "inline markup moves to reasoning",
			content:       "<thinking>X</thinking>Y",
			wantReasoning: "X",
			wantContent:   "Y",
		},
		{
			name:          "streamed reasoning wins over markup",
			reasoning:     "streamed thoughts",
			content:       "<thinking>inline</thinking>answer",
			wantReasoning: "streamed thoughts",
			wantContent:   "<thinking>inline</thinking>answer",
		},
		{
			name:          "markup spanning the whole content leaves placeholder",
			content:       "<thinking>only thoughts</thinking>",
			wantReasoning: "only thoughts",
			wantContent:   "(no response)",
		},
		{
			name:        "plain content untouched",
			content:     "just an answer",
			wantContent: "just an answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.AddUserMessage("q", nil)
			if tt.reasoning != "" {
				s.AppendReasoning(tt.reasoning)
			}
			s.AppendContent(tt.content)
			s.Finalize()

			msgs := s.Messages()
			last := msgs[len(msgs)-1]
			if last.Role != RoleAssistant {
				t.Fatalf("last role: got %q, want %q", last.Role, RoleAssistant)
			}
			if last.Reasoning != tt.wantReasoning {
				t.Errorf("reasoning: got %q, want %q", last.Reasoning, tt.wantReasoning)
			}
			if last.Content != tt.wantContent {
				t.Errorf("content: got %q, want %q", last.Content, tt.wantContent)
			}
		})
	}
}

func TestFinalizeWithEmptyBuffersIsNoOp(t *testing.T) {
	s := newTestStore()
	s.AddUserMessage("q", nil)
	before := len(s.Messages())

	s.Finalize()

	if got := len(s.Messages()); got != before {
		t.Errorf("message count: got %d, want %d", got, before)
	}
	if s.State() != StateIdle {
		t.Errorf("state: got %v, want %v", s.State(), StateIdle)
	}

	// Double finalize after a real completion must not duplicate the message.
	s.AppendContent("answer")
	s.Finalize()
	after := len(s.Messages())
	s.Finalize()
	if got := len(s.Messages()); got != after {
		t.Errorf("message count after double finalize: got %d, want %d", got, after)
	}
}

func TestUpsertToolCallKeyedByName(t *testing.T) {
	s := newTestStore()

	s.UpsertToolCall("search_notes", "calling", "")
	s.UpsertToolCall("search_notes", "executing", "")
	s.UpsertToolCall("search_notes", "completed", "3 notes found")
	s.UpsertToolCall("summarize", "", "")

	_, _, _, _, toolCalls := s.StreamSnapshot()
	if len(toolCalls) != 2 {
		t.Fatalf("tool call count: got %d, want 2", len(toolCalls))
	}
	if toolCalls[0].Status != ToolStatusCompleted {
		t.Errorf("first status: got %q, want %q", toolCalls[0].Status, ToolStatusCompleted)
	}
	if toolCalls[0].Result != "3 notes found" {
		t.Errorf("first result: got %q", toolCalls[0].Result)
	}
	if toolCalls[1].Status != ToolStatusCalling {
		t.Errorf("default status: got %q, want %q", toolCalls[1].Status, ToolStatusCalling)
	}
	if toolCalls[0].ID == toolCalls[1].ID {
		t.Error("tool call ids are not unique")
	}
}

func TestUpsertToolCallKeepsResultOnStatusOnlyUpdate(t *testing.T) {
	s := newTestStore()

	s.UpsertToolCall("search_notes", "completed", "3 notes found")
	s.UpsertToolCall("search_notes", "completed", "")

	_, _, _, _, toolCalls := s.StreamSnapshot()
	if toolCalls[0].Result != "3 notes found" {
		t.Errorf("result: got %q, want %q", toolCalls[0].Result, "3 notes found")
	}
}

func TestResetStreamBuffersDiscardsPartialOutput(t *testing.T) {
	s := newTestStore()
	s.AddUserMessage("q", nil)
	if err := s.BeginTurn(); err != nil {
		t.Fatalf("BeginTurn: %v", err)
	}
	s.MarkStreaming()
	s.AppendReasoning("partial thoughts")
	s.AppendContent("partial answer")
	s.UpsertToolCall("search_notes", "calling", "")

	s.ResetStreamBuffers()

	_, _, reasoning, content, toolCalls := s.StreamSnapshot()
	if reasoning != "" || content != "" || len(toolCalls) != 0 {
		t.Errorf("buffers not cleared: reasoning=%q content=%q toolCalls=%d", reasoning, content, len(toolCalls))
	}
	if s.State() != StateAwaitingResponse {
		t.Errorf("state: got %v, want %v", s.State(), StateAwaitingResponse)
	}

	// Finalize now sees empty buffers and appends nothing.
	before := len(s.Messages())
	s.Finalize()
	if got := len(s.Messages()); got != before {
		t.Errorf("message count: got %d, want %d", got, before)
	}
}

func TestLoadConversation(t *testing.T) {
	s := newTestStore()
	s.AddUserMessage("first conversation", nil)
	s.AppendContent("answer one")
	s.Finalize()
	firstID := s.CurrentConversationID()

	s.StartNewChat()
	s.AddUserMessage("second conversation", nil)
	s.AppendContent("answer two")
	s.Finalize()

	s.LoadConversation(firstID)

	if s.CurrentConversationID() != firstID {
		t.Errorf("current id: got %q, want %q", s.CurrentConversationID(), firstID)
	}
	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("message count: got %d, want 3", len(msgs))
	}
	if msgs[1].Content != "first conversation" {
		t.Errorf("user message: got %q", msgs[1].Content)
	}

	// Unknown id leaves everything untouched.
	s.LoadConversation("conv-does-not-exist")
	if s.CurrentConversationID() != firstID {
		t.Errorf("current id after unknown load: got %q, want %q", s.CurrentConversationID(), firstID)
	}
}

func TestDeleteConversation(t *testing.T) {
	s := newTestStore()
	s.AddUserMessage("keep me", nil)
	s.AppendContent("a")
	s.Finalize()
	keepID := s.CurrentConversationID()

	s.StartNewChat()
	s.AddUserMessage("delete me", nil)
	s.AppendContent("b")
	s.Finalize()
	deleteID := s.CurrentConversationID()

	t.Run("deleting current resets to greeting", func(t *testing.T) {
		s.DeleteConversation(deleteID)

		if s.CurrentConversationID() != "" {
			t.Errorf("current id: got %q, want empty", s.CurrentConversationID())
		}
		msgs := s.Messages()
		if len(msgs) != 1 || msgs[0].Content != DefaultGreeting {
			t.Errorf("active messages not reset to greeting: %+v", msgs)
		}
		if got := len(s.Conversations()); got != 1 {
			t.Errorf("conversation count: got %d, want 1", got)
		}
	})

	t.Run("deleting another leaves active list alone", func(t *testing.T) {
		s.LoadConversation(keepID)
		s.StartNewChat()
		s.AddUserMessage("active", nil)
		activeID := s.CurrentConversationID()

		s.DeleteConversation(keepID)

		if s.CurrentConversationID() != activeID {
			t.Errorf("current id: got %q, want %q", s.CurrentConversationID(), activeID)
		}
		if got := len(s.Messages()); got != 2 {
			t.Errorf("message count: got %d, want 2", got)
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		before := len(s.Conversations())
		s.DeleteConversation("conv-missing")
		if got := len(s.Conversations()); got != before {
			t.Errorf("conversation count: got %d, want %d", got, before)
		}
	})
}

func TestRenameConversation(t *testing.T) {
	s := newTestStore()
	s.AddUserMessage("q", nil)
	id := s.CurrentConversationID()

	s.RenameConversation(id, "Overfitting notes")

	if got := s.Conversations()[0].Title; got != "Overfitting notes" {
		t.Errorf("title: got %q, want %q", got, "Overfitting notes")
	}

	s.RenameConversation("conv-missing", "nope")
	if got := s.Conversations()[0].Title; got != "Overfitting notes" {
		t.Errorf("title after unknown rename: got %q", got)
	}
}

func TestFinalizeErrorEndsTurn(t *testing.T) {
	s := newTestStore()
	s.AddUserMessage("q", nil)
	if err := s.BeginTurn(); err != nil {
		t.Fatalf("BeginTurn: %v", err)
	}
	s.MarkStreaming()
	s.AppendContent("partial")

	s.FinalizeError("model crashed")

	msgs := s.Messages()
	last := msgs[len(msgs)-1]
	if last.Content != "model crashed" {
		t.Errorf("content: got %q, want %q", last.Content, "model crashed")
	}
	if s.State() != StateIdle {
		t.Errorf("state: got %v, want %v", s.State(), StateIdle)
	}
	_, _, _, content, _ := s.StreamSnapshot()
	if content != "" {
		t.Errorf("content buffer not cleared: %q", content)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := newTestStore()
	s.AddUserMessage("remember this", nil)
	s.AppendContent("noted")
	s.Finalize()

	snap := s.Snapshot()

	restored := NewChatStore("")
	restored.Restore(snap)

	if restored.CurrentConversationID() != s.CurrentConversationID() {
		t.Errorf("current id: got %q, want %q", restored.CurrentConversationID(), s.CurrentConversationID())
	}
	if got, want := len(restored.Messages()), len(s.Messages()); got != want {
		t.Errorf("message count: got %d, want %d", got, want)
	}
	if restored.State() != StateIdle {
		t.Errorf("state after restore: got %v, want %v", restored.State(), StateIdle)
	}
}

func TestRestoreDropsDanglingCurrentID(t *testing.T) {
	s := NewChatStore("")
	s.Restore(PersistedState{
		CurrentConversationID: "conv-gone",
	})

	if s.CurrentConversationID() != "" {
		t.Errorf("current id: got %q, want empty", s.CurrentConversationID())
	}
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Content != DefaultGreeting {
		t.Errorf("active messages not reset to greeting: %+v", msgs)
	}
}

func TestPersistCalledAfterMutations(t *testing.T) {
	s := newTestStore()
	var calls int
	s.SetPersistFunc(func(PersistedState) { calls++ })

	s.AddUserMessage("q", nil)
	s.AppendContent("a")
	s.Finalize()
	s.StartNewChat()

	if calls != 3 {
		t.Errorf("persist calls: got %d, want 3", calls)
	}
}
