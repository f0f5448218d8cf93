package owner

import (
	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/providers/marketplace"
)

var (
	_ core.OwnerResolver         = (*Resolver)(nil)
	_ core.OwnerCacheInvalidator = (*Resolver)(nil)
	_ ApplicationReader          = (*marketplace.Client)(nil)
)
