package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-marketplace-accounts/core"
)

var (
	_ gocmd.Commander[CreateTestAccountMessage]       = (*CreateTestAccountCommand)(nil)
	_ gocmd.Commander[RegisterExistingAccountMessage] = (*RegisterExistingAccountCommand)(nil)

	_ OnboardingService = (*core.Service)(nil)
)
