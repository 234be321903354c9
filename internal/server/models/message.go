package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
)

// Message is an immutable note delivered to RecipientID's inbox.
type Message struct {
	ID          int64
	Content     string
	Timestamp   time.Time
	RecipientID int64
	IsAnonymous bool
}

// NewMessage validates content and stamps the message with now in UTC.
// Whitespace-only content counts as empty.
func NewMessage(recipientID int64, content string, isAnonymous bool, now time.Time) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is empty", common.ErrInvalidInput)
	}
	return &Message{
		Content:     content,
		Timestamp:   now.UTC(),
		RecipientID: recipientID,
		IsAnonymous: isAnonymous,
	}, nil
}
