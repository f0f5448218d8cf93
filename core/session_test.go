package core

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewSession_RequiresDeveloper(t *testing.T) {
	_, err := NewSession("   ")
	if err == nil {
		t.Fatalf("expected missing developer error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ErrorConfiguration {
		t.Fatalf("expected configuration text code, got %q", richErr.TextCode)
	}
}

func TestSession_OwnerDataIsCopied(t *testing.T) {
	session, err := NewSession(" seller123 ")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if session.DeveloperNickname() != "seller123" {
		t.Fatalf("expected trimmed nickname, got %q", session.DeveloperNickname())
	}
	if session.HasOwnerData() || session.OwnerData() != nil {
		t.Fatalf("expected new session without owner data")
	}

	session.setOwnerData(OwnerData{ClientID: "app-123", Nickname: "owner"})
	data := session.OwnerData()
	data.Nickname = "mutated"
	if session.OwnerData().Nickname != "owner" {
		t.Fatalf("expected owner data copy to be isolated")
	}

	session.clearOwnerData()
	if session.HasOwnerData() {
		t.Fatalf("expected owner data to be cleared")
	}
}
