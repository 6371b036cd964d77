package domain

import (
	"context"
	"time"
)

// PhraseList is a named, user-owned collection of bilingual phrases.
type PhraseList struct {
	ID         int64
	UserID     int64
	Name       string
	TargetLang string
	SourceLang string
	CreatedAt  time.Time
}

// OwnedBy reports whether userID owns the list.
func (l PhraseList) OwnedBy(userID int64) bool {
	return l.UserID == userID
}

// Phrase is one target/source text pair belonging to a list.
type Phrase struct {
	ID             int64
	ListID         int64
	TargetLangText string
	SourceLangText string
}

// PhraseListRepository is the port for list and phrase persistence.
//
// CreateList and InsertPhrase must be called with a context obtained from
// TxManager.RunInTx. CreateList returns ErrAlreadyExists when the owner
// already has a list with that name. FindByID returns ErrNotFound when the
// list does not exist; FindByNameAndOwner returns (nil, nil) instead.
type PhraseListRepository interface {
	CreateList(ctx context.Context, ownerID int64, name, targetLang, sourceLang string) (int64, error)
	FindByOwner(ctx context.Context, ownerID int64) ([]PhraseList, error)
	FindByID(ctx context.Context, id int64) (*PhraseList, error)
	FindByNameAndOwner(ctx context.Context, name string, ownerID int64) (*PhraseList, error)
	InsertPhrase(ctx context.Context, listID int64, targetText, sourceText string) (int64, error)
	FindPhrasesByList(ctx context.Context, listID int64) ([]Phrase, error)
	CountPhrases(ctx context.Context, listID int64) (int, error)
}

// TxManager runs fn inside a storage transaction. The context passed to fn
// carries the transaction; repository calls made with it join the
// transaction. A nil return commits, an error or panic rolls back.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
