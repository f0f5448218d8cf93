package core

import "strings"

// Session is the process-scoped onboarding state. The developer nickname is
// fixed at construction; owner data is cleared by every registration and set
// by every successful owner resolution.
type Session struct {
	developerNickname string
	ownerData         *OwnerData
}

func NewSession(developerNickname string) (*Session, error) {
	nickname := strings.TrimSpace(developerNickname)
	if nickname == "" {
		return nil, ConfigurationError("developer", "developer account nickname is required")
	}
	return &Session{developerNickname: nickname}, nil
}

func (s *Session) DeveloperNickname() string {
	if s == nil {
		return ""
	}
	return s.developerNickname
}

// OwnerData returns a copy of the cached owner metadata, or nil.
func (s *Session) OwnerData() *OwnerData {
	if s == nil || s.ownerData == nil {
		return nil
	}
	copied := *s.ownerData
	return &copied
}

func (s *Session) HasOwnerData() bool {
	return s != nil && s.ownerData != nil
}

func (s *Session) setOwnerData(data OwnerData) {
	if s == nil {
		return
	}
	s.ownerData = &data
}

func (s *Session) clearOwnerData() {
	if s == nil {
		return
	}
	s.ownerData = nil
}
