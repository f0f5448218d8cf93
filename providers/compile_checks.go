package providers

import "github.com/goliatone/go-marketplace-accounts/core"

var _ core.LoginProvider = (*LoopbackLogin)(nil)

var _ core.TokenRefresher = (*TokenRefresher)(nil)
