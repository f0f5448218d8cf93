package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type accountRecord struct {
	bun.BaseModel `bun:"table:marketplace_accounts,alias:ma"`

	ID             string     `bun:"id,pk"`
	Nickname       string     `bun:"nickname,notnull"`
	UserID         string     `bun:"user_id,notnull"`
	SiteID         string     `bun:"site_id,notnull"`
	Email          string     `bun:"email,notnull"`
	IsTestAccount  bool       `bun:"is_test_account,notnull"`
	Authorized     bool       `bun:"authorized,notnull"`
	AccessToken    string     `bun:"access_token,notnull"`
	RefreshToken   string     `bun:"refresh_token,notnull"`
	TokenType      string     `bun:"token_type,notnull"`
	TokenScope     string     `bun:"token_scope,notnull"`
	TokenExpiresAt *time.Time `bun:"token_expires_at,nullzero"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
