package gocommand

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/goliatone/go-command"
	accountscommand "github.com/goliatone/go-marketplace-accounts/command"
	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/query"
)

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "accounts.command.test" }

type failingDispatchMessage struct{}

func (failingDispatchMessage) Type() string { return "accounts.command.test_failing" }

type recordingLogger struct {
	debug []string
}

func (l *recordingLogger) Trace(string, ...any) {}
func (l *recordingLogger) Debug(msg string, args ...any) {
	l.debug = append(l.debug, msg)
}
func (l *recordingLogger) Info(string, ...any)                     {}
func (l *recordingLogger) Warn(string, ...any)                     {}
func (l *recordingLogger) Error(string, ...any)                    {}
func (l *recordingLogger) Fatal(string, ...any)                    {}
func (l *recordingLogger) WithContext(context.Context) core.Logger { return l }

func TestBus_DispatchRunsCommandOnce(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()
	executed := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})
	if err := RegisterCommand(bus, cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := bus.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestBus_FailedCommandReturnsHandlerError(t *testing.T) {
	var stdlog bytes.Buffer
	log.SetOutput(&stdlog)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	logger := &recordingLogger{}
	bus := NewBus(logger)
	defer bus.Close()

	stageErr := &core.StageError{Stage: core.StageCreateTestAccount, Cause: errors.New("developer lacks permission")}
	attempts := 0
	cmd := command.CommandFunc[failingDispatchMessage](func(context.Context, failingDispatchMessage) error {
		attempts++
		return stageErr
	})
	if err := RegisterCommand(bus, cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}

	err := Dispatch(context.Background(), failingDispatchMessage{})
	if err == nil {
		t.Fatalf("expected dispatch error")
	}
	var got *core.StageError
	if !errors.As(err, &got) || got != stageErr {
		t.Fatalf("expected original stage error, got %v", err)
	}
	if strings.Contains(err.Error(), "HANDLER_") {
		t.Fatalf("expected no runner envelope in %q", err.Error())
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
	if len(logger.debug) == 0 {
		t.Fatalf("expected handler failure on the injected logger")
	}
	if stdlog.Len() != 0 {
		t.Fatalf("expected nothing on the standard logger, got %q", stdlog.String())
	}
}

type onboardingStub struct {
	existing int
	after    int
}

func (s *onboardingStub) ProvisionNewTestAccount(context.Context, string) (core.AccountRecord, error) {
	return core.AccountRecord{}, errors.New("not used")
}

func (s *onboardingStub) ProvisionExistingAccount(context.Context) (core.AccountRecord, error) {
	s.existing++
	return core.AccountRecord{Nickname: "buyer"}, nil
}

func (s *onboardingStub) AfterRegistration(context.Context) { s.after++ }

func (s *onboardingStub) ListAccounts(context.Context) ([]core.AccountRecord, error) {
	return []core.AccountRecord{{Nickname: "buyer"}, {Nickname: "TEST_USER_1", IsTestAccount: true}}, nil
}

func TestOnboardingCommandsDispatchThroughBus(t *testing.T) {
	svc := &onboardingStub{}
	bus := NewBus(nil)
	defer bus.Close()

	if err := RegisterCommand[accountscommand.RegisterExistingAccountMessage](bus, accountscommand.NewRegisterExistingAccountCommand(svc)); err != nil {
		t.Fatalf("register existing account command: %v", err)
	}
	if err := RegisterQuery[query.ListAccountsMessage, []core.AccountRecord](bus, query.NewListAccountsQuery(svc)); err != nil {
		t.Fatalf("register list accounts query: %v", err)
	}
	if err := bus.Initialize(); err != nil {
		t.Fatalf("initialize bus: %v", err)
	}

	if err := Dispatch(context.Background(), accountscommand.RegisterExistingAccountMessage{}); err != nil {
		t.Fatalf("dispatch register existing: %v", err)
	}
	if svc.existing != 1 || svc.after != 1 {
		t.Fatalf("expected one registration and one owner refresh, got %d/%d", svc.existing, svc.after)
	}

	accounts, err := Query[query.ListAccountsMessage, []core.AccountRecord](context.Background(), query.ListAccountsMessage{})
	if err != nil {
		t.Fatalf("query accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected two accounts, got %d", len(accounts))
	}
}

func TestRegisterCommand_RequiresBus(t *testing.T) {
	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error { return nil })
	if err := RegisterCommand[dispatchMessage](nil, cmd); err == nil {
		t.Fatalf("expected error without a bus")
	}
}
