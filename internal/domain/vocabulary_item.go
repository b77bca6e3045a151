package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vocabulary item validation errors.
var (
	ErrItemIDEmpty   = errors.New("vocabulary item ID cannot be empty")
	ErrItemTermEmpty = errors.New("vocabulary item term cannot be empty")
)

// VocabularyItem is a word or phrase a user can study. Items without an owner
// are shared with every user.
type VocabularyItem struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	Term        string     `json:"term"`
	Translation string     `json:"translation"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewVocabularyItem creates an item with a fresh ID. A nil owner makes it shared.
func NewVocabularyItem(ownerID *uuid.UUID, term, translation string) (*VocabularyItem, error) {
	item := &VocabularyItem{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Term:        strings.TrimSpace(term),
		Translation: strings.TrimSpace(translation),
		CreatedAt:   time.Now().UTC(),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks that the item has an ID and a term.
func (i *VocabularyItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}
	if i.Term == "" {
		return ErrItemTermEmpty
	}
	return nil
}

// Clone returns a deep copy of the item.
func (i *VocabularyItem) Clone() *VocabularyItem {
	c := *i
	if i.OwnerID != nil {
		owner := *i.OwnerID
		c.OwnerID = &owner
	}
	return &c
}

// VisibleTo reports whether userID may study the item.
func (i *VocabularyItem) VisibleTo(userID uuid.UUID) bool {
	return i.OwnerID == nil || *i.OwnerID == userID
}

// DueItem is a due progress record joined with its vocabulary item.
type DueItem struct {
	Progress LearningProgress `json:"progress"`
	Item     VocabularyItem   `json:"item"`
}
