package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"canvaschat/model"
)

func (a AppView) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showPicker {
		return a.renderPicker()
	}

	header := a.renderHeader()
	status := a.renderStatusBar()

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString(a.textarea.View())
	b.WriteString("\n")
	b.WriteString(status)

	if a.showHelp {
		return b.String() + "\n" + a.renderHelp()
	}
	return b.String()
}

func (a AppView) renderHeader() string {
	title := "New chat"
	if id := a.store.CurrentConversationID(); id != "" {
		for _, c := range a.store.Conversations() {
			if c.ID == id {
				title = c.Title
				break
			}
		}
	}
	title = runewidth.Truncate(title, a.width-12, "…")
	left := TitleStyle.Render("canvaschat")
	right := DimStyle.Render(title)

	pad := a.width - runewidth.StringWidth("canvaschat") - runewidth.StringWidth(title)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func (a AppView) renderStatusBar() string {
	if a.flash != "" {
		return StatusStyle.Render(a.flash)
	}

	state := a.store.State()
	switch state {
	case model.StateAwaitingResponse:
		return a.loadingSpinner.View() + StatusStyle.Render(" Waiting for response... (Esc to cancel)")
	case model.StateStreaming:
		return a.loadingSpinner.View() + StatusStyle.Render(" Streaming... (Esc to keep what has arrived)")
	}

	parts := []string{FormatFooter(
		"Enter", "Send",
		"^N", "New chat",
		"^L", "Conversations",
		"^Y", "Copy answer",
		"^G", "Help",
	)}
	if n := len(a.pending); n > 0 {
		parts = append(parts, SelectedStyle.Render(fmt.Sprintf("%d image(s) staged", n)))
	}
	return StatusStyle.Render(strings.Join(parts, "  "))
}

func (a AppView) renderHelp() string {
	lines := []string{
		"Enter        Send prompt",
		"/attach <p>  Stage an image for the next prompt",
		"Ctrl+N       Start a new chat",
		"Ctrl+L       Open conversation picker",
		"Ctrl+Y       Copy the last answer to the clipboard",
		"Esc          Cancel the in-flight response",
		"PgUp/PgDn    Scroll transcript",
		"Ctrl+C       Quit",
	}
	return HelpStyle.Render(strings.Join(lines, "\n"))
}
