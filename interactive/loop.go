package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-marketplace-accounts/core"
)

const defaultFarewell = "Bye!"

var ErrPromptAborted = errors.New("interactive: prompt aborted")

type MenuPrompter interface {
	Choose(ctx context.Context, state core.MenuState) (ActionTag, error)
}

type MenuStateSource interface {
	MenuState(ctx context.Context) core.MenuState
}

type LoopConfig struct {
	Prompter MenuPrompter
	State    MenuStateSource
	Actions  ActionTable
	Notifier core.Notifier
	Logger   core.Logger
	// MaxPromptFailures bounds consecutive prompt errors; zero disables the
	// bound.
	MaxPromptFailures int
	Farewell          string
}

type Loop struct {
	prompter          MenuPrompter
	state             MenuStateSource
	actions           ActionTable
	notifier          core.Notifier
	logger            core.Logger
	maxPromptFailures int
	farewell          string
}

func NewLoop(cfg LoopConfig) (*Loop, error) {
	if cfg.Prompter == nil {
		return nil, fmt.Errorf("interactive: menu prompter is required")
	}
	if cfg.State == nil {
		return nil, fmt.Errorf("interactive: menu state source is required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = core.NopNotifier{}
	}
	if cfg.Actions == nil {
		cfg.Actions = ActionTable{}
	}
	if cfg.Farewell == "" {
		cfg.Farewell = defaultFarewell
	}
	return &Loop{
		prompter:          cfg.Prompter,
		state:             cfg.State,
		actions:           cfg.Actions,
		notifier:          cfg.Notifier,
		logger:            cfg.Logger,
		maxPromptFailures: cfg.MaxPromptFailures,
		farewell:          cfg.Farewell,
	}, nil
}

// Run presents the menu until the user exits. Action and dispatch failures
// are reported and the loop continues; only a cancelled context or too many
// consecutive prompt failures end it with an error.
func (l *Loop) Run(ctx context.Context) error {
	promptFailures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tag, err := l.prompter.Choose(ctx, l.state.MenuState(ctx))
		if err != nil {
			if errors.Is(err, ErrPromptAborted) {
				l.notifier.Info(l.farewell)
				return nil
			}
			promptFailures++
			l.report("menu prompt failed", "", err)
			if l.maxPromptFailures > 0 && promptFailures >= l.maxPromptFailures {
				return fmt.Errorf("interactive: giving up after %d consecutive prompt failures: %w", promptFailures, err)
			}
			continue
		}
		promptFailures = 0

		if tag == ActionExit {
			l.notifier.Info(l.farewell)
			return nil
		}

		action, err := l.actions.Resolve(tag)
		if err != nil {
			l.report("menu dispatch failed", tag, err)
			continue
		}
		if err := runAction(ctx, action); err != nil {
			l.report("menu action failed", tag, err)
		}
	}
}

func runAction(ctx context.Context, action ActionFunc) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("interactive: action panicked: %v", recovered)
		}
	}()
	return action(ctx)
}

func (l *Loop) report(message string, tag ActionTag, err error) {
	l.notifier.Error(core.UserMessage(err))
	if l.logger == nil {
		return
	}
	mapped := core.MapError(err)
	args := []any{"error", err.Error(), "text_code", mapped.TextCode}
	if tag != "" {
		args = append(args, "action", string(tag))
	}
	if stage, ok := core.StageOf(err); ok {
		args = append(args, "stage", string(stage))
	}
	l.logger.Error(message, args...)
}

// MenuStateFunc adapts a function to MenuStateSource.
type MenuStateFunc func(ctx context.Context) core.MenuState

func (f MenuStateFunc) MenuState(ctx context.Context) core.MenuState {
	return f(ctx)
}
