package gocommand

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	glog "github.com/goliatone/go-logger/glog"
)

// Bus registers the onboarding commands and queries with a go-command
// registry and subscribes them to the global dispatcher. Every handler runs
// once, without a timeout, and reports failures through the glog logger
// instead of the runner's default stdlib output.
type Bus struct {
	registry   *command.Registry
	runnerOpts []runner.Option

	mu            sync.Mutex
	subscriptions []commanddispatcher.Subscription
}

func NewBus(logger glog.Logger) *Bus {
	return &Bus{
		registry:   command.NewRegistry(),
		runnerOpts: HandlerOptions(logger),
	}
}

// HandlerOptions returns the runner settings used for onboarding handlers.
// Logins wait on the user, so no timeout applies, and a failed action is
// never retried behind the user's back.
func HandlerOptions(logger glog.Logger) []runner.Option {
	logger = glog.Ensure(logger)
	return []runner.Option{
		runner.WithNoTimeout(),
		runner.WithMaxRetries(0),
		runner.WithErrorHandler(func(err error) {
			logger.Debug("onboarding handler failed", "error", err.Error())
		}),
		runner.WithMiddleware(keepHandlerError),
	}
}

// RegisterCommand registers cmd and subscribes it with the bus handler
// options.
func RegisterCommand[T any](bus *Bus, cmd command.Commander[T]) error {
	if bus == nil || bus.registry == nil {
		return fmt.Errorf("gocommand: bus is not configured")
	}
	if cmd == nil {
		return fmt.Errorf("gocommand: command is required")
	}
	sub := commanddispatcher.SubscribeCommand(cmd, bus.runnerOpts...)
	if err := bus.registry.RegisterCommand(cmd); err != nil {
		sub.Unsubscribe()
		return err
	}
	bus.track(sub)
	return nil
}

func RegisterQuery[T any, R any](bus *Bus, qry command.Querier[T, R]) error {
	if bus == nil || bus.registry == nil {
		return fmt.Errorf("gocommand: bus is not configured")
	}
	if qry == nil {
		return fmt.Errorf("gocommand: query is required")
	}
	sub := commanddispatcher.SubscribeQuery(qry, bus.runnerOpts...)
	if err := bus.registry.RegisterCommand(qry); err != nil {
		sub.Unsubscribe()
		return err
	}
	bus.track(sub)
	return nil
}

func (b *Bus) Initialize() error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: bus is not configured")
	}
	return b.registry.Initialize()
}

// Close drops every dispatcher subscription made through the bus.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := b.subscriptions
	b.subscriptions = nil
	b.mu.Unlock()
	for _, sub := range subs {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
}

func (b *Bus) track(sub commanddispatcher.Subscription) {
	b.mu.Lock()
	b.subscriptions = append(b.subscriptions, sub)
	b.mu.Unlock()
}

// Dispatch sends msg to its command handler. When the handler itself failed,
// its error is returned as is rather than the runner's retry envelope, so
// callers can still inspect stage errors.
func Dispatch[T any](ctx context.Context, msg T) error {
	ctx, kept := withKeptError(ctx)
	err := commanddispatcher.Dispatch(ctx, msg)
	if err != nil && kept.err != nil {
		return kept.err
	}
	return err
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	ctx, kept := withKeptError(ctx)
	result, err := commanddispatcher.Query[T, R](ctx, msg)
	if err != nil && kept.err != nil {
		return result, kept.err
	}
	return result, err
}

type keptErrorKey struct{}

type keptError struct {
	err error
}

func withKeptError(ctx context.Context) (context.Context, *keptError) {
	kept := &keptError{}
	return context.WithValue(ctx, keptErrorKey{}, kept), kept
}

func keepHandlerError(next func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		err := next(ctx)
		if err != nil {
			if kept, ok := ctx.Value(keptErrorKey{}).(*keptError); ok {
				kept.err = err
			}
		}
		return err
	}
}
