package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// turnDoneMsg signals that a full request/response turn has finished,
// including any fallback attempt. Err is only non-nil when the turn could
// not even start (another turn was still in flight).
type turnDoneMsg struct {
	err error
}

// streamTickMsg drives periodic viewport refreshes while a response is
// arriving so partial reasoning/content buffers show up as they grow.
type streamTickMsg time.Time

// flashClearMsg clears a transient status bar notice.
type flashClearMsg struct{}

func streamTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return streamTickMsg(t)
	})
}

func flashClear() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}
