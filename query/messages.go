package query

const (
	TypeListAccounts = "accounts.query.accounts.list"
	TypeMenuState    = "accounts.query.menu_state"
)

type ListAccountsMessage struct{}

func (ListAccountsMessage) Type() string { return TypeListAccounts }

type MenuStateMessage struct{}

func (MenuStateMessage) Type() string { return TypeMenuState }
