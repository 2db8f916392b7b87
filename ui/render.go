package ui

import (
	"fmt"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/mattn/go-runewidth"

	"canvaschat/model"
)

// refreshTranscript rebuilds the viewport content from the store. While a
// turn is in flight the partial stream buffers are appended after the stored
// messages so the answer grows in place.
func (a *AppView) refreshTranscript(gotoBottom bool) {
	if !a.ready {
		return
	}

	var content strings.Builder

	for _, msg := range a.store.Messages() {
		content.WriteString(a.renderMessage(msg))
		content.WriteString("\n")
	}

	loading, streaming, reasoning, partial, toolCalls := a.store.StreamSnapshot()
	if loading || streaming {
		timestamp := DimStyle.Render("[--:--]")
		content.WriteString(fmt.Sprintf("%s %s\n", timestamp, AssistantStyle.Render("Assistant")))
		if reasoning != "" {
			content.WriteString(ReasoningStyle.Render(indentBlock(reasoning, "  ")))
			content.WriteString("\n")
		}
		for _, tc := range toolCalls {
			content.WriteString("  " + renderToolCall(tc) + "\n")
		}
		if visible := strings.TrimSpace(model.StripAllThinking(partial)); visible != "" {
			content.WriteString(visible)
			content.WriteString("\n")
		}
	}

	if content.Len() == 0 {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Start chatting!"))
		return
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func (a *AppView) renderMessage(msg model.Message) string {
	timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

	var out strings.Builder
	switch msg.Role {
	case model.RoleUser:
		out.WriteString(fmt.Sprintf("%s %s\n", timestamp, UserStyle.Render("You")))
		out.WriteString(msg.Content)
		out.WriteString("\n")
		for _, att := range msg.Attachments {
			out.WriteString(DimStyle.Render(fmt.Sprintf("  📎 %s (%.1f KB)", att.Name, float64(att.SizeBytes)/1024.0)))
			out.WriteString("\n")
		}
	case model.RoleAssistant:
		out.WriteString(fmt.Sprintf("%s %s\n", timestamp, AssistantStyle.Render("Assistant")))
		if msg.Reasoning != "" {
			out.WriteString(ReasoningStyle.Render(indentBlock(msg.Reasoning, "  ")))
			out.WriteString("\n")
		}
		for _, tc := range msg.ToolCalls {
			out.WriteString("  " + renderToolCall(tc) + "\n")
		}
		out.WriteString(a.renderMarkdown(msg.Content))
	default:
		out.WriteString(fmt.Sprintf("%s %s\n", timestamp, DimStyle.Render("System")))
		out.WriteString(msg.Content)
		out.WriteString("\n")
	}
	return out.String()
}

func (a *AppView) renderMarkdown(content string) string {
	width := a.width - 4
	if width < 20 {
		width = 20
	}
	rendered := markdown.Render(content, width, 0)
	return strings.TrimRight(string(rendered), "\n") + "\n"
}

func renderToolCall(tc model.ToolCall) string {
	line := fmt.Sprintf("⚙ %s", tc.Name)
	switch tc.Status {
	case model.ToolStatusCompleted:
		line += " " + DimStyle.Render("done")
	case model.ToolStatusError:
		line += " " + DangerStyle.Render("failed")
	default:
		line += " " + DimStyle.Render(tc.Status)
	}
	if tc.Result != "" {
		line += "\n" + DimStyle.Render(indentBlock(truncateLine(tc.Result, 200), "    "))
	}
	return line
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, max, "…")
}
