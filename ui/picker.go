package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"canvaschat/model"
	"canvaschat/storage"
)

func (a *AppView) openPicker() {
	a.showPicker = true
	a.pickerIdx = 0
	a.filterMode = false
	a.renameMode = false
	a.confirmDelete = nil
	a.pickerFilter.Reset()
}

func (a *AppView) closePicker() {
	a.showPicker = false
	a.filterMode = false
	a.renameMode = false
	a.confirmDelete = nil
	a.textarea.Focus()
}

// pickerList returns the conversations currently shown, honoring the fuzzy
// filter when one is active.
func (a *AppView) pickerList() []model.Conversation {
	query := ""
	if a.filterMode {
		query = a.pickerFilter.Value()
	}
	matches := a.store.SearchConversations(query)
	out := make([]model.Conversation, len(matches))
	for i, m := range matches {
		out[i] = m.Conversation
	}
	return out
}

func (a AppView) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Delete confirmation has its own tiny key loop.
	if a.confirmDelete != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			a.store.DeleteConversation(a.confirmDelete.ID)
			a.confirmDelete = nil
			if a.pickerIdx > 0 {
				a.pickerIdx--
			}
			a.refreshTranscript(true)
		case "n", "N", "esc":
			a.confirmDelete = nil
		}
		return a, nil
	}

	if a.renameMode {
		switch msg.String() {
		case "enter":
			list := a.pickerList()
			title := strings.TrimSpace(a.renameInput.Value())
			if title != "" && a.pickerIdx < len(list) {
				a.store.RenameConversation(list[a.pickerIdx].ID, title)
			}
			a.renameMode = false
			return a, nil
		case "esc":
			a.renameMode = false
			return a, nil
		}
		var cmd tea.Cmd
		a.renameInput, cmd = a.renameInput.Update(msg)
		return a, cmd
	}

	if a.filterMode {
		switch msg.String() {
		case "esc":
			a.filterMode = false
			a.pickerFilter.Reset()
			a.pickerIdx = 0
			return a, nil
		case "enter":
			// Resolve against the filtered list before the filter resets.
			return a, a.loadSelected()
		case "up", "down":
			// Fall through to list navigation below.
		default:
			var cmd tea.Cmd
			a.pickerFilter, cmd = a.pickerFilter.Update(msg)
			a.pickerIdx = 0
			return a, cmd
		}
	}

	list := a.pickerList()

	switch msg.String() {
	case "esc", "ctrl+l":
		a.closePicker()
		return a, nil
	case "j", "down":
		if a.pickerIdx < len(list)-1 {
			a.pickerIdx++
		}
	case "k", "up":
		if a.pickerIdx > 0 {
			a.pickerIdx--
		}
	case "enter":
		return a, a.loadSelected()
	case "d":
		if a.pickerIdx < len(list) {
			conv := list[a.pickerIdx]
			a.confirmDelete = &conv
		}
	case "r":
		if a.pickerIdx < len(list) {
			a.renameInput.SetValue(list[a.pickerIdx].Title)
			a.renameInput.Focus()
			a.renameMode = true
		}
	case "e":
		if a.pickerIdx < len(list) {
			conv := list[a.pickerIdx]
			path := storage.GenerateExportPath(conv.Title)
			if err := storage.ExportConversation(conv, path); err != nil {
				a.flash = DangerStyle.Render(fmt.Sprintf("Export failed: %v", err))
			} else {
				a.flash = "Exported to " + path
			}
			a.closePicker()
			return a, flashClear()
		}
	case "/":
		a.filterMode = true
		a.pickerFilter.Reset()
		a.pickerFilter.Focus()
		a.pickerIdx = 0
	}
	return a, nil
}

func (a *AppView) loadSelected() tea.Cmd {
	list := a.pickerList()
	if a.pickerIdx < len(list) {
		a.store.LoadConversation(list[a.pickerIdx].ID)
	}
	a.closePicker()
	a.refreshTranscript(true)
	return nil
}

func (a AppView) renderPicker() string {
	modalWidth := a.width - 10
	if modalWidth > 110 {
		modalWidth = 110
	}
	if modalWidth < 30 {
		modalWidth = 30
	}

	list := a.pickerList()

	if a.confirmDelete != nil {
		warning := DangerStyle.Render("This action cannot be undone.")
		body := fmt.Sprintf("Delete conversation?\n\n\"%s\"\n\n%s\n\n%s",
			a.confirmDelete.Title, warning, FormatFooter("y", "Delete", "n", "Keep"))
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dimColor).Padding(1, 2).Render(body))
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Conversations")

	var header string
	if a.filterMode {
		header = a.pickerFilter.View()
	} else {
		header = fmt.Sprintf("%d conversations", len(list))
	}
	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	var lines []string
	if len(list) == 0 {
		empty := "No conversations yet. Start chatting to create one!"
		if a.filterMode {
			empty = "No matches found"
		}
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(empty))
	} else {
		currentID := a.store.CurrentConversationID()
		for i, conv := range list {
			marker := "  "
			if conv.ID == currentID {
				marker = "* "
			}
			line := fmt.Sprintf("%s%s  %s", marker,
				runewidth.Truncate(conv.Title, modalWidth-28, "…"),
				DimStyle.Render(conv.UpdatedAt.Format("2006-01-02 15:04")))
			if i == a.pickerIdx {
				line = SelectedStyle.Render("> " + strings.TrimPrefix(line, "  "))
			}
			lines = append(lines, line)
		}
	}

	if a.renameMode {
		lines = append(lines, "", "Rename: "+a.renameInput.View())
	}

	footer := HelpStyle.Render(FormatFooter(
		"j/k", "Navigate",
		"Enter", "Open",
		"r", "Rename",
		"d", "Delete",
		"e", "Export",
		"/", "Filter",
		"Esc", "Close",
	))

	body := strings.Join([]string{title, headerSection, strings.Join(lines, "\n"), "", footer}, "\n")
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dimColor).Padding(1, 2).Render(body))
}
