package sqlstore

import "github.com/goliatone/go-marketplace-accounts/core"

var (
	_ core.AccountRegistry = (*AccountStore)(nil)
	_ core.AccountLister   = (*AccountStore)(nil)
	_ core.AccountFinder   = (*AccountStore)(nil)

	_ core.BackingStore    = (*Client)(nil)
	_ core.AccountRegistry = (*Client)(nil)
	_ core.AccountLister   = (*Client)(nil)
	_ core.AccountFinder   = (*Client)(nil)
)
