package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"canvaschat/config"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		chatHeight := a.height - a.textarea.Height() - 4
		if chatHeight < 3 {
			chatHeight = 3
		}
		if !a.ready {
			a.viewport = viewport.New(a.width, chatHeight)
			a.ready = true
		} else {
			a.viewport.Width = a.width
			a.viewport.Height = chatHeight
		}
		a.textarea.SetWidth(a.width - 2)
		a.refreshTranscript(true)
		return a, nil

	case streamTickMsg:
		if !a.sending {
			return a, nil
		}
		a.refreshTranscript(true)
		return a, streamTick()

	case spinner.TickMsg:
		if !a.sending {
			return a, nil
		}
		var cmd tea.Cmd
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		return a, cmd

	case turnDoneMsg:
		a.sending = false
		a.cancelSend = nil
		if msg.err != nil {
			a.flash = DangerStyle.Render(msg.err.Error())
			cmds = append(cmds, flashClear())
		}
		a.refreshTranscript(true)
		return a, tea.Batch(cmds...)

	case flashClearMsg:
		a.flash = ""
		return a, nil

	case tea.KeyMsg:
		if a.showPicker {
			return a.updatePicker(msg)
		}
		return a.updateChat(msg)
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if a.cancelSend != nil {
			a.cancelSend()
		}
		return a, tea.Quit

	case "esc":
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}
		if a.sending && a.cancelSend != nil {
			// Cancel the in-flight turn. Whatever has streamed so far is
			// kept as the answer.
			a.cancelSend()
			return a, nil
		}
		return a, nil

	case "ctrl+g":
		a.showHelp = !a.showHelp
		return a, nil

	case "ctrl+n":
		if a.sending {
			return a, nil
		}
		a.store.StartNewChat()
		a.pending = nil
		a.textarea.Reset()
		a.refreshTranscript(true)
		return a, nil

	case "ctrl+l":
		if a.sending {
			return a, nil
		}
		a.openPicker()
		return a, nil

	case "ctrl+y":
		content := a.lastAssistantContent()
		if content == "" {
			return a, nil
		}
		if err := clipboard.WriteAll(content); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Clipboard copy failed: %v", err)
			}
			a.flash = DangerStyle.Render("Clipboard unavailable")
		} else {
			a.flash = "Copied last answer"
		}
		return a, flashClear()

	case "enter":
		return a.submit()

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var taCmd tea.Cmd
	a.textarea, taCmd = a.textarea.Update(msg)
	return a, taCmd
}

func (a AppView) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.textarea.Value())
	if text == "" {
		return a, nil
	}

	if rest, ok := strings.CutPrefix(text, "/attach "); ok {
		a.textarea.Reset()
		if err := a.stageAttachment(strings.TrimSpace(rest)); err != nil {
			a.flash = DangerStyle.Render(err.Error())
		} else {
			a.flash = fmt.Sprintf("Attached %d image(s) to next prompt", len(a.pending))
		}
		return a, flashClear()
	}

	if a.sending {
		a.flash = "Still waiting on the previous answer"
		return a, flashClear()
	}

	a.textarea.Reset()
	cmd := a.sendPrompt(text)
	a.refreshTranscript(true)
	return a, cmd
}
