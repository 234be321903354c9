package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
)

// Link is a shareable token that routes anonymous submissions to OwnerID.
// Only the token referenced by the owner's CurrentLink is active.
type Link struct {
	Token     string
	OwnerID   int64
	OwnerName string
	CreatedAt time.Time
}

// ValidateToken checks length and alphabet of a link token.
func ValidateToken(token string) error {
	if len(token) != common.LinkTokenLength {
		return fmt.Errorf("%w: token must be %d characters", common.ErrInvalidInput, common.LinkTokenLength)
	}
	for _, r := range token {
		if !strings.ContainsRune(common.LinkAlphabet, r) {
			return fmt.Errorf("%w: token contains %q", common.ErrInvalidInput, r)
		}
	}
	return nil
}

// NewLink builds a link record for owner.
func NewLink(token string, owner *User) (*Link, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}
	return &Link{Token: token, OwnerID: owner.ID, OwnerName: owner.UserName}, nil
}
