package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"canvaschat/client"
	"canvaschat/model"
)

// AppView is the top-level bubbletea model: a transcript viewport over a
// text input, plus a conversation picker overlay.
type AppView struct {
	store  *model.ChatStore
	client *client.Client

	// UI components
	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	// In-flight turn state
	sending    bool
	cancelSend context.CancelFunc

	// Attachments staged for the next prompt
	pending []model.Attachment

	// Conversation picker overlay
	showPicker    bool
	pickerIdx     int
	pickerFilter  textinput.Model
	filterMode    bool
	renameMode    bool
	renameInput   textinput.Model
	confirmDelete *model.Conversation

	// Transient status bar notice
	flash string

	showHelp bool
}

func NewAppView(store *model.ChatStore, cl *client.Client) AppView {
	ta := textarea.New()
	ta.Placeholder = "Ask about your notes... (/attach <path> to add an image)"
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	filter := textinput.New()
	filter.Placeholder = "Filter conversations..."
	filter.Prompt = "/ "

	rename := textinput.New()
	rename.Placeholder = "New title"
	rename.Prompt = "> "
	rename.CharLimit = 120

	return AppView{
		store:          store,
		client:         cl,
		textarea:       ta,
		loadingSpinner: sp,
		pickerFilter:   filter,
		renameInput:    rename,
	}
}

func (a AppView) Init() tea.Cmd {
	return textarea.Blink
}

// sendPrompt runs one full turn off the UI goroutine. The store is the
// synchronization point, so the command only reports completion.
func (a *AppView) sendPrompt(prompt string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelSend = cancel
	a.sending = true

	cl := a.client
	st := a.store
	pending := a.pending
	a.pending = nil

	send := func() tea.Msg {
		err := cl.Send(ctx, st, prompt, pending, nil)
		cancel()
		return turnDoneMsg{err: err}
	}
	return tea.Batch(send, streamTick(), a.loadingSpinner.Tick)
}

// lastAssistantContent returns the newest assistant message, for clipboard
// copy. Empty when the transcript holds none.
func (a *AppView) lastAssistantContent() string {
	msgs := a.store.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant {
			return msgs[i].Content
		}
	}
	return ""
}
