package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-marketplace-accounts/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

const listPageSize = 500

// AccountStore persists marketplace accounts keyed by nickname.
type AccountStore struct {
	db   *bun.DB
	repo repository.Repository[*accountRecord]
	now  func() time.Time
}

func NewAccountStore(db *bun.DB) (*AccountStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*accountRecord](db, accountHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid account repository wiring: %w", err)
		}
	}
	return &AccountStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register inserts the account or refreshes the stored tokens of the account
// with the same nickname. The returned record reports which path was taken.
func (s *AccountStore) Register(ctx context.Context, in core.RegisterAccountInput) (core.AccountRecord, error) {
	if s == nil || s.repo == nil {
		return core.AccountRecord{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.AccountRecord{}, err
	}

	now := s.now()
	existing, err := s.findOne(ctx, repository.SelectBy("nickname", "=", strings.TrimSpace(in.Profile.Nickname)))
	if err != nil {
		return core.AccountRecord{}, err
	}
	if existing == nil {
		created, createErr := s.repo.Create(ctx, newAccountRecord(in, now))
		if createErr != nil {
			return core.AccountRecord{}, createErr
		}
		return created.toDomain().MarkNew(true), nil
	}

	applyRegistration(existing, in, now)
	updated, err := s.repo.Update(ctx, existing, repository.UpdateByID(existing.ID))
	if err != nil {
		return core.AccountRecord{}, err
	}
	return updated.toDomain().MarkNew(false), nil
}

func (s *AccountStore) FindAnyAuthorized(ctx context.Context) (*core.AccountRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: account store is not configured")
	}
	record, err := s.findOne(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.authorized = ?", true)
		}),
		repository.OrderBy("updated_at DESC"),
	)
	if err != nil || record == nil {
		return nil, err
	}
	account := record.toDomain()
	return &account, nil
}

func (s *AccountStore) FindByNickname(ctx context.Context, nickname string) (*core.AccountRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: account store is not configured")
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, core.ErrNicknameRequired
	}
	record, err := s.findOne(ctx, repository.SelectBy("nickname", "=", nickname))
	if err != nil || record == nil {
		return nil, err
	}
	account := record.toDomain()
	return &account, nil
}

func (s *AccountStore) FindByUserID(ctx context.Context, userID string) (*core.AccountRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: account store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("sqlstore: user id is required")
	}
	record, err := s.findOne(ctx,
		repository.SelectBy("user_id", "=", userID),
		repository.OrderBy("updated_at DESC"),
	)
	if err != nil || record == nil {
		return nil, err
	}
	account := record.toDomain()
	return &account, nil
}

// List returns every account, test accounts last, then by nickname.
func (s *AccountStore) List(ctx context.Context) ([]core.AccountRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: account store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("is_test_account ASC"),
		repository.OrderBy("nickname ASC"),
		repository.SelectPaginate(listPageSize, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.AccountRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *AccountStore) findOne(ctx context.Context, criteria ...repository.SelectCriteria) (*accountRecord, error) {
	criteria = append(criteria, repository.SelectPaginate(1, 0))
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
