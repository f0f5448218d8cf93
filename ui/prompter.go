package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/interactive"
)

const defaultMenuTitle = "What do you want to do?"

type PrompterOption func(*HuhPrompter)

// WithAccessible switches huh to its line-based mode, for screen readers and
// dumb terminals.
func WithAccessible(accessible bool) PrompterOption {
	return func(p *HuhPrompter) { p.accessible = accessible }
}

func WithIO(input io.Reader, output io.Writer) PrompterOption {
	return func(p *HuhPrompter) {
		p.input = input
		p.output = output
	}
}

func WithTitle(title string) PrompterOption {
	return func(p *HuhPrompter) {
		if title != "" {
			p.title = title
		}
	}
}

// HuhPrompter renders the action menu as a huh select.
type HuhPrompter struct {
	title      string
	accessible bool
	input      io.Reader
	output     io.Writer
	run        func(ctx context.Context, form *huh.Form) error
}

func NewHuhPrompter(opts ...PrompterOption) *HuhPrompter {
	prompter := &HuhPrompter{
		title: defaultMenuTitle,
		run: func(ctx context.Context, form *huh.Form) error {
			return form.RunWithContext(ctx)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(prompter)
		}
	}
	return prompter
}

func (p *HuhPrompter) Choose(ctx context.Context, state core.MenuState) (interactive.ActionTag, error) {
	options := interactive.MenuOptions(state)
	selected := options[0].Tag

	items := make([]huh.Option[interactive.ActionTag], 0, len(options))
	for _, option := range options {
		items = append(items, huh.NewOption(option.Label, option.Tag))
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[interactive.ActionTag]().
			Title(p.title).
			Description(menuDescription(state)).
			Options(items...).
			Value(&selected),
	)).WithAccessible(p.accessible)
	if p.input != nil {
		form = form.WithInput(p.input)
	}
	if p.output != nil {
		form = form.WithOutput(p.output)
	}

	if err := p.run(ctx, form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", interactive.ErrPromptAborted
		}
		return "", fmt.Errorf("ui: menu prompt: %w", err)
	}
	return selected, nil
}

func menuDescription(state core.MenuState) string {
	switch {
	case !state.Connected:
		return "The account store is offline."
	case state.FirstLogin:
		return "No account is registered yet. Log in to register the application owner."
	default:
		return ""
	}
}

var _ interactive.MenuPrompter = (*HuhPrompter)(nil)
