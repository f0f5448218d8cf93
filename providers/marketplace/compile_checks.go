package marketplace

import "github.com/goliatone/go-marketplace-accounts/core"

var (
	_ core.TestAccountProvisioner = (*TestAccountProvisioner)(nil)
	_ TestUserCreator             = (*Client)(nil)
)
