// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"phrasebook/internal/domain"
)

// DB implements an in-memory database storage.
//
// Users are written directly under mu. Lists and phrases are transactional:
// RunInTx serializes transactions on txMu, works on a private copy of the
// tables and publishes it on commit, so readers never observe a partial
// import.
type DB struct {
	mu    sync.Mutex
	users []*domain.User
	data  tables

	userIDCounter int64

	txMu sync.Mutex
}

type tables struct {
	lists   []domain.PhraseList
	phrases []domain.Phrase

	listIDCounter   int64
	phraseIDCounter int64
}

func (t tables) clone() tables {
	c := t
	c.lists = append([]domain.PhraseList(nil), t.lists...)
	c.phrases = append([]domain.Phrase(nil), t.phrases...)
	return c
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var (
	_ domain.UserRepository       = (*DB)(nil)
	_ domain.PhraseListRepository = (*DB)(nil)
	_ domain.TxManager            = (*DB)(nil)
)

type txKey struct{}

type tx struct {
	db   *DB
	data tables
}

// RunInTx runs fn against a staged copy of the list and phrase tables and
// publishes it if fn returns nil. Transactions are serialized: txMu is held
// for all of fn, so an import blocks every other import until its upload
// has been read and parsed. Fine for development and tests only.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	db.mu.Lock()
	t := &tx{db: db, data: db.data.clone()}
	db.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	// A cancelled request must not commit.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	db.mu.Lock()
	db.data = t.data
	db.mu.Unlock()
	return nil
}

func (db *DB) txFrom(ctx context.Context) *tx {
	if t, ok := ctx.Value(txKey{}).(*tx); ok && t.db == db {
		return t
	}
	return nil
}

// view runs fn on the tables visible to ctx: the transaction's staged copy
// when ctx carries one, the committed tables otherwise.
func (db *DB) view(ctx context.Context, fn func(t *tables) error) error {
	if t := db.txFrom(ctx); t != nil {
		return fn(&t.data)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.data)
}

// write runs fn on the transaction's staged tables. Without a transaction
// in ctx, fn runs in one of its own.
func (db *DB) write(ctx context.Context, fn func(t *tables) error) error {
	if t := db.txFrom(ctx); t != nil {
		return fn(&t.data)
	}
	return db.RunInTx(ctx, func(ctx context.Context) error {
		return fn(&db.txFrom(ctx).data)
	})
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrAlreadyExists)
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// --- PhraseListRepository ---

// CreateList inserts a list. The (owner, name) pair is unique.
func (db *DB) CreateList(ctx context.Context, ownerID int64, name, targetLang, sourceLang string) (int64, error) {
	var id int64
	err := db.write(ctx, func(t *tables) error {
		for _, l := range t.lists {
			if l.UserID == ownerID && l.Name == name {
				return fmt.Errorf("phrase list %q: %w", name, domain.ErrAlreadyExists)
			}
		}
		t.listIDCounter++
		id = t.listIDCounter
		t.lists = append(t.lists, domain.PhraseList{
			ID:         id,
			UserID:     ownerID,
			Name:       name,
			TargetLang: targetLang,
			SourceLang: sourceLang,
			CreatedAt:  time.Now().UTC(),
		})
		return nil
	})
	return id, err
}

// FindByOwner lists the owner's lists, newest first.
func (db *DB) FindByOwner(ctx context.Context, ownerID int64) ([]domain.PhraseList, error) {
	var out []domain.PhraseList
	err := db.view(ctx, func(t *tables) error {
		for _, l := range t.lists {
			if l.UserID == ownerID {
				out = append(out, l)
			}
		}
		return nil
	})

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

// FindByID returns the list with the given id or ErrNotFound.
func (db *DB) FindByID(ctx context.Context, id int64) (*domain.PhraseList, error) {
	var found *domain.PhraseList
	err := db.view(ctx, func(t *tables) error {
		for _, l := range t.lists {
			if l.ID == id {
				c := l
				found = &c
				return nil
			}
		}
		return fmt.Errorf("phrase list %d: %w", id, domain.ErrNotFound)
	})
	return found, err
}

// FindByNameAndOwner returns the owner's list with exactly this name, or nil.
func (db *DB) FindByNameAndOwner(ctx context.Context, name string, ownerID int64) (*domain.PhraseList, error) {
	var found *domain.PhraseList
	err := db.view(ctx, func(t *tables) error {
		for _, l := range t.lists {
			if l.UserID == ownerID && l.Name == name {
				c := l
				found = &c
				break
			}
		}
		return nil
	})
	return found, err
}

// InsertPhrase appends a phrase to a list.
func (db *DB) InsertPhrase(ctx context.Context, listID int64, targetText, sourceText string) (int64, error) {
	var id int64
	err := db.write(ctx, func(t *tables) error {
		exists := false
		for _, l := range t.lists {
			if l.ID == listID {
				exists = true
				break
			}
		}
		if !exists {
			return fmt.Errorf("phrase list %d: %w", listID, domain.ErrNotFound)
		}
		t.phraseIDCounter++
		id = t.phraseIDCounter
		t.phrases = append(t.phrases, domain.Phrase{
			ID:             id,
			ListID:         listID,
			TargetLangText: targetText,
			SourceLangText: sourceText,
		})
		return nil
	})
	return id, err
}

// FindPhrasesByList returns the list's phrases in insertion order.
func (db *DB) FindPhrasesByList(ctx context.Context, listID int64) ([]domain.Phrase, error) {
	var out []domain.Phrase
	err := db.view(ctx, func(t *tables) error {
		for _, p := range t.phrases {
			if p.ListID == listID {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// CountPhrases returns the number of phrases in a list.
func (db *DB) CountPhrases(ctx context.Context, listID int64) (int, error) {
	n := 0
	err := db.view(ctx, func(t *tables) error {
		for _, p := range t.phrases {
			if p.ListID == listID {
				n++
			}
		}
		return nil
	})
	return n, err
}
