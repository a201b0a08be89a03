package tui

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"tekai/internal/chat"
	"tekai/internal/conversation"
)

const typingText = "Typing..."

// markdownCache renders finished assistant answers once per width.
type markdownCache struct {
	width    int
	renderer *glamour.TermRenderer
	rendered map[string]string
}

func newMarkdownCache() *markdownCache {
	return &markdownCache{rendered: map[string]string{}}
}

func (c *markdownCache) setWidth(w int) {
	if w == c.width {
		return
	}
	c.width = w
	c.renderer = nil
	c.rendered = map[string]string{}
}

func (c *markdownCache) render(text string) string {
	if out, ok := c.rendered[text]; ok {
		return out
	}
	if c.renderer == nil {
		w := c.width
		if w <= 0 {
			w = 76
		}
		r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(w))
		if err != nil {
			log.Printf("failed to create markdown renderer: %v", err)
			return text
		}
		c.renderer = r
	}
	out, err := c.renderer.Render(text)
	if err != nil {
		log.Printf("failed to render markdown: %v", err)
		return text
	}
	out = strings.Trim(out, "\n")
	c.rendered[text] = out
	return out
}

func (m *Model) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.viewport.View(),
		m.input.View(),
		m.footer(),
	)
	if !m.showHistory {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar(), main)
}

func (m *Model) header() string {
	if m.askingName {
		return titleStyle.Render("Welcome! What should I call you?")
	}
	return titleStyle.Render(fmt.Sprintf("Hi %s!", m.opts.State.Profile().Name())) +
		mutedStyle.Render("  How can I help you?")
}

func (m *Model) footer() string {
	var flags []string
	snap := m.opts.Conv.Snapshot()
	if snap.Listening {
		flags = append(flags, "listening")
	}
	if snap.Speaking {
		flags = append(flags, "speaking")
	}
	line := m.help.View(m.keys)
	if len(flags) > 0 {
		line = statusStyle.Render("["+strings.Join(flags, ", ")+"]") + " " + line
	}
	if m.status != "" {
		line = statusStyle.Render(m.status) + "\n" + line
	}
	return line
}

// transcript renders the live log. The message under reveal is shown raw so
// the typewriter stays visible; settled answers go through markdown.
func (m *Model) transcript(snap conversation.Snapshot) string {
	if len(snap.Messages) == 0 && snap.State == conversation.StateIdle {
		return m.suggestions()
	}
	var b strings.Builder
	last := len(snap.Messages) - 1
	for i, msg := range snap.Messages {
		if msg.Sender == chat.SenderUser {
			b.WriteString(userStyle.Render(msg.Text))
		} else if i == last && snap.State == conversation.StateRevealing {
			b.WriteString(assistantStyle.Render(msg.Text))
		} else {
			b.WriteString(m.markdown.render(msg.Text))
		}
		b.WriteString("\n\n")
	}
	if snap.State == conversation.StateAwaiting {
		b.WriteString(mutedStyle.Render(typingText))
	}
	return b.String()
}

func (m *Model) suggestions() string {
	if m.askingName {
		return ""
	}
	var chips []string
	for i, s := range Suggestions {
		chips = append(chips, suggestStyle.Render(fmt.Sprintf("F%d %s", i+1, s)))
	}
	return mutedStyle.Render("Try one of these:") + "\n\n" + lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m *Model) sidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("History"))
	if len(m.items) == 0 {
		b.WriteString("\n" + mutedStyle.Render("No questions yet"))
	}
	day := ""
	for i, it := range m.items {
		if it.day != day {
			day = it.day
			b.WriteString("\n" + dayStyle.Render(day))
		}
		style := itemStyle
		if m.focus == focusHistory && i == m.cursor {
			style = selectedStyle
		}
		b.WriteString("\n" + style.Render(it.text))
	}
	h := m.height
	if h <= 0 {
		h = 20
	}
	return sidebarStyle.Height(h).Render(b.String())
}
