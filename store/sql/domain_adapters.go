package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/google/uuid"
)

func newAccountRecord(in core.RegisterAccountInput, now time.Time) *accountRecord {
	record := &accountRecord{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	applyRegistration(record, in, now)
	return record
}

// applyRegistration overwrites the mutable columns with the latest login.
// A re-registration always re-authorizes the account. The test account flag
// only ever turns on: logging in again through the existing account path
// keeps a sandbox user marked as one.
func applyRegistration(record *accountRecord, in core.RegisterAccountInput, now time.Time) {
	record.Nickname = strings.TrimSpace(in.Profile.Nickname)
	record.UserID = strings.TrimSpace(in.Profile.UserID)
	record.SiteID = strings.TrimSpace(in.Profile.SiteID)
	record.Email = strings.TrimSpace(in.Profile.Email)
	record.IsTestAccount = record.IsTestAccount || in.IsTestAccount
	record.Authorized = true
	record.AccessToken = in.Tokens.AccessToken
	record.RefreshToken = in.Tokens.RefreshToken
	record.TokenType = strings.TrimSpace(in.Tokens.TokenType)
	record.TokenScope = strings.TrimSpace(in.Tokens.Scope)
	record.TokenExpiresAt = copyTime(in.Tokens.ExpiresAt)
	record.UpdatedAt = now
}

func (r *accountRecord) toDomain() core.AccountRecord {
	if r == nil {
		return core.AccountRecord{}
	}
	return core.AccountRecord{
		ID:            r.ID,
		Nickname:      r.Nickname,
		UserID:        r.UserID,
		SiteID:        r.SiteID,
		Email:         r.Email,
		IsTestAccount: r.IsTestAccount,
		Authorized:    r.Authorized,
		Tokens: core.TokenPair{
			AccessToken:  r.AccessToken,
			RefreshToken: r.RefreshToken,
			TokenType:    r.TokenType,
			Scope:        r.TokenScope,
			ExpiresAt:    copyTime(r.TokenExpiresAt),
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func copyTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := value.UTC()
	return &copied
}
