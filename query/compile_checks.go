package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-marketplace-accounts/core"
)

var (
	_ gocmd.Querier[ListAccountsMessage, []core.AccountRecord] = (*ListAccountsQuery)(nil)
	_ gocmd.Querier[MenuStateMessage, core.MenuState]          = (*MenuStateQuery)(nil)

	_ AccountReader   = (*core.Service)(nil)
	_ MenuStateReader = (*core.Service)(nil)
)
