// Package interactive drives the onboarding menu: it asks the prompter for
// an action, resolves it in a fixed table and runs it until exit.
package interactive

import (
	"context"
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-marketplace-accounts/command"
	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/query"
)

type ActionTag string

const (
	ActionNewTestAccount  ActionTag = "new_test_account"
	ActionExistingAccount ActionTag = "existing_account"
	ActionListAccounts    ActionTag = "list_accounts"
	ActionExit            ActionTag = "exit"
)

type ActionFunc func(ctx context.Context) error

// ActionTable maps every non-exit tag to its handler. Exit is handled by the
// loop itself and never appears in the table.
type ActionTable map[ActionTag]ActionFunc

func (t ActionTable) Resolve(tag ActionTag) (ActionFunc, error) {
	action, ok := t[tag]
	if !ok || action == nil {
		return nil, &core.DispatchError{Tag: string(tag)}
	}
	return action, nil
}

type ActionHandlers struct {
	CreateTestAccount       gocmd.Commander[command.CreateTestAccountMessage]
	RegisterExistingAccount gocmd.Commander[command.RegisterExistingAccountMessage]
	ListAccounts            gocmd.Querier[query.ListAccountsMessage, []core.AccountRecord]
}

// NewActionTable binds the menu actions to their handlers. A nil handler
// leaves its tag unmapped.
func NewActionTable(developerNickname string, handlers ActionHandlers, notifier core.Notifier) ActionTable {
	if notifier == nil {
		notifier = core.NopNotifier{}
	}
	table := ActionTable{}
	if handlers.CreateTestAccount != nil {
		table[ActionNewTestAccount] = func(ctx context.Context) error {
			return handlers.CreateTestAccount.Execute(ctx, command.CreateTestAccountMessage{
				DeveloperNickname: developerNickname,
			})
		}
	}
	if handlers.RegisterExistingAccount != nil {
		table[ActionExistingAccount] = func(ctx context.Context) error {
			return handlers.RegisterExistingAccount.Execute(ctx, command.RegisterExistingAccountMessage{})
		}
	}
	if handlers.ListAccounts != nil {
		table[ActionListAccounts] = func(ctx context.Context) error {
			records, err := handlers.ListAccounts.Query(ctx, query.ListAccountsMessage{})
			if err != nil {
				return err
			}
			notifier.Info(FormatAccounts(records))
			return nil
		}
	}
	return table
}

func FormatAccounts(records []core.AccountRecord) string {
	if len(records) == 0 {
		return "No accounts registered yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d registered account(s):", len(records))
	for _, record := range records {
		status := "authorized"
		if !record.Authorized {
			status = "unauthorized"
		}
		fmt.Fprintf(&b, "\n  - %s [%s, %s", record.Nickname, record.Kind(), status)
		if site := strings.TrimSpace(record.SiteID); site != "" {
			fmt.Fprintf(&b, ", %s", site)
		}
		b.WriteString("]")
	}
	return b.String()
}

// MenuOption is one entry the prompter renders.
type MenuOption struct {
	Tag   ActionTag
	Label string
}

// MenuOptions shapes the menu for state. On a first login the only useful
// action is logging in with an account, which also seeds the owner data.
func MenuOptions(state core.MenuState) []MenuOption {
	existingLabel := "Log in with an existing account"
	if state.FirstLogin {
		existingLabel = "Log in with your first account"
	}
	options := []MenuOption{}
	if !state.FirstLogin {
		options = append(options, MenuOption{Tag: ActionNewTestAccount, Label: "Create a new test account"})
	}
	options = append(options, MenuOption{Tag: ActionExistingAccount, Label: existingLabel})
	if state.Connected {
		options = append(options, MenuOption{Tag: ActionListAccounts, Label: "List registered accounts"})
	}
	return append(options, MenuOption{Tag: ActionExit, Label: "Exit"})
}
