package accounts

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	gocmd "github.com/goliatone/go-command"
	accountscommand "github.com/goliatone/go-marketplace-accounts/command"
	"github.com/goliatone/go-marketplace-accounts/core"
	accountsquery "github.com/goliatone/go-marketplace-accounts/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(&stubFacadeService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.CreateTestAccount == nil || commands.RegisterExistingAccount == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.ListAccounts == nil || queries.MenuState == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
	var facade *Facade
	if facade.Service() != nil {
		t.Fatalf("expected nil facade to expose nil service")
	}
}

func TestFacade_CommandDelegation(t *testing.T) {
	svc := &stubFacadeService{}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	ctx := gocmd.ContextWithResult(context.Background(), gocmd.NewResult[core.AccountRecord]())
	if err := facade.Commands().CreateTestAccount.Execute(ctx, accountscommand.CreateTestAccountMessage{
		DeveloperNickname: "dev_seller",
	}); err != nil {
		t.Fatalf("execute create test account: %v", err)
	}
	if svc.lastDeveloper != "dev_seller" {
		t.Fatalf("expected developer to be delegated, got %q", svc.lastDeveloper)
	}
	if svc.afterRegistration != 1 {
		t.Fatalf("expected owner refresh after registration, got %d", svc.afterRegistration)
	}

	svc.existingErr = errors.New("login denied")
	if err := facade.Commands().RegisterExistingAccount.Execute(context.Background(), accountscommand.RegisterExistingAccountMessage{}); err == nil {
		t.Fatalf("expected register existing account error")
	}
	if svc.afterRegistration != 1 {
		t.Fatalf("expected no owner refresh after failure")
	}
}

func TestFacade_QueryDelegation(t *testing.T) {
	svc := &stubFacadeService{
		records: []core.AccountRecord{{Nickname: "seller_one"}, {Nickname: "TETE_1", IsTestAccount: true}},
		state:   core.MenuState{Connected: true},
	}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	records, err := facade.Queries().ListAccounts.Query(context.Background(), accountsquery.ListAccountsMessage{})
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(records) != 2 || records[1].Nickname != "TETE_1" {
		t.Fatalf("unexpected records %#v", records)
	}

	state, err := facade.Queries().MenuState.Query(context.Background(), accountsquery.MenuStateMessage{})
	if err != nil {
		t.Fatalf("menu state: %v", err)
	}
	if !state.Connected || state.FirstLogin {
		t.Fatalf("unexpected menu state %#v", state)
	}
}

func TestGetMigrationsFS_IncludesBothDialects(t *testing.T) {
	fsys := GetMigrationsFS()
	entries, err := fs.ReadDir(fsys, "data/sql/migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected postgres migrations")
	}
	sqlite, err := fs.ReadDir(fsys, "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("read sqlite migrations: %v", err)
	}
	if len(sqlite) == 0 {
		t.Fatalf("expected sqlite migrations")
	}
}

type stubFacadeService struct {
	lastDeveloper     string
	existingErr       error
	afterRegistration int
	records           []core.AccountRecord
	state             core.MenuState
}

func (s *stubFacadeService) ProvisionNewTestAccount(_ context.Context, developerNickname string) (core.AccountRecord, error) {
	s.lastDeveloper = developerNickname
	return core.AccountRecord{Nickname: "TETE_1", IsTestAccount: true}, nil
}

func (s *stubFacadeService) ProvisionExistingAccount(context.Context) (core.AccountRecord, error) {
	if s.existingErr != nil {
		return core.AccountRecord{}, s.existingErr
	}
	return core.AccountRecord{Nickname: "seller_one"}, nil
}

func (s *stubFacadeService) AfterRegistration(context.Context) {
	s.afterRegistration++
}

func (s *stubFacadeService) ListAccounts(context.Context) ([]core.AccountRecord, error) {
	return s.records, nil
}

func (s *stubFacadeService) MenuState(context.Context) core.MenuState {
	return s.state
}
