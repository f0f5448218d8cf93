package query

import (
	"context"

	"github.com/goliatone/go-marketplace-accounts/core"
)

type AccountReader interface {
	ListAccounts(ctx context.Context) ([]core.AccountRecord, error)
}

type MenuStateReader interface {
	MenuState(ctx context.Context) core.MenuState
}

type ListAccountsQuery struct {
	reader AccountReader
}

func NewListAccountsQuery(reader AccountReader) *ListAccountsQuery {
	return &ListAccountsQuery{reader: reader}
}

func (q *ListAccountsQuery) Query(ctx context.Context, _ ListAccountsMessage) ([]core.AccountRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: account reader is required")
	}
	return q.reader.ListAccounts(ctx)
}

type MenuStateQuery struct {
	reader MenuStateReader
}

func NewMenuStateQuery(reader MenuStateReader) *MenuStateQuery {
	return &MenuStateQuery{reader: reader}
}

// Query never fails on probe errors; the reader folds them into the state.
func (q *MenuStateQuery) Query(ctx context.Context, _ MenuStateMessage) (core.MenuState, error) {
	if q == nil || q.reader == nil {
		return core.MenuState{}, queryDependencyError("query: menu state reader is required")
	}
	return q.reader.MenuState(ctx), nil
}
