package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-marketplace-accounts/core"
)

type OnboardingService interface {
	ProvisionNewTestAccount(ctx context.Context, developerNickname string) (core.AccountRecord, error)
	ProvisionExistingAccount(ctx context.Context) (core.AccountRecord, error)
	AfterRegistration(ctx context.Context)
}

type CreateTestAccountCommand struct {
	service OnboardingService
}

func NewCreateTestAccountCommand(service OnboardingService) *CreateTestAccountCommand {
	return &CreateTestAccountCommand{service: service}
}

func (c *CreateTestAccountCommand) Execute(ctx context.Context, msg CreateTestAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: onboarding service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	record, err := c.service.ProvisionNewTestAccount(ctx, msg.DeveloperNickname)
	if err != nil {
		return err
	}
	storeResult(ctx, record)
	c.service.AfterRegistration(ctx)
	return nil
}

type RegisterExistingAccountCommand struct {
	service OnboardingService
}

func NewRegisterExistingAccountCommand(service OnboardingService) *RegisterExistingAccountCommand {
	return &RegisterExistingAccountCommand{service: service}
}

func (c *RegisterExistingAccountCommand) Execute(ctx context.Context, _ RegisterExistingAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: onboarding service is required")
	}
	record, err := c.service.ProvisionExistingAccount(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, record)
	c.service.AfterRegistration(ctx)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
