package accounts

import (
	"fmt"

	accountscommand "github.com/goliatone/go-marketplace-accounts/command"
	accountsquery "github.com/goliatone/go-marketplace-accounts/query"
)

// CommandQueryService is what the onboarding commands and queries delegate
// to. *core.Service satisfies it.
type CommandQueryService interface {
	accountscommand.OnboardingService
	accountsquery.AccountReader
	accountsquery.MenuStateReader
}

type Commands struct {
	CreateTestAccount       *accountscommand.CreateTestAccountCommand
	RegisterExistingAccount *accountscommand.RegisterExistingAccountCommand
}

type Queries struct {
	ListAccounts *accountsquery.ListAccountsQuery
	MenuState    *accountsquery.MenuStateQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("accounts: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			CreateTestAccount:       accountscommand.NewCreateTestAccountCommand(service),
			RegisterExistingAccount: accountscommand.NewRegisterExistingAccountCommand(service),
		},
		queries: Queries{
			ListAccounts: accountsquery.NewListAccountsQuery(service),
			MenuState:    accountsquery.NewMenuStateQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
