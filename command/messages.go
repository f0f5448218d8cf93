package command

import "strings"

const (
	TypeCreateTestAccount       = "accounts.command.test_account.create"
	TypeRegisterExistingAccount = "accounts.command.account.register_existing"
)

// CreateTestAccountMessage asks for a new sandbox account owned by the
// developer account.
type CreateTestAccountMessage struct {
	DeveloperNickname string
}

func (CreateTestAccountMessage) Type() string { return TypeCreateTestAccount }

func (m CreateTestAccountMessage) Validate() error {
	if strings.TrimSpace(m.DeveloperNickname) == "" {
		return commandValidationError("developer_nickname", "developer nickname is required")
	}
	return nil
}

type RegisterExistingAccountMessage struct{}

func (RegisterExistingAccountMessage) Type() string { return TypeRegisterExistingAccount }

func (RegisterExistingAccountMessage) Validate() error { return nil }
