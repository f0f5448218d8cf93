// Package ui renders the onboarding menu and user-facing messages in the
// terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/goliatone/go-marketplace-accounts/core"
)

// ConsoleNotifier writes styled messages to a terminal. Styles degrade to
// plain text when the writer is not a color terminal.
type ConsoleNotifier struct {
	mu      sync.Mutex
	out     io.Writer
	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	renderer := lipgloss.NewRenderer(out)
	return &ConsoleNotifier{
		out:     out,
		info:    renderer.NewStyle(),
		success: renderer.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		warn:    renderer.NewStyle().Foreground(lipgloss.Color("11")),
		err:     renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

func (n *ConsoleNotifier) Info(message string)    { n.write(n.info, "", message) }
func (n *ConsoleNotifier) Success(message string) { n.write(n.success, "✔ ", message) }
func (n *ConsoleNotifier) Warn(message string)    { n.write(n.warn, "! ", message) }
func (n *ConsoleNotifier) Error(message string)   { n.write(n.err, "✖ ", message) }

func (n *ConsoleNotifier) write(style lipgloss.Style, prefix string, message string) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintln(n.out, style.Render(prefix+message))
}

var _ core.Notifier = (*ConsoleNotifier)(nil)
