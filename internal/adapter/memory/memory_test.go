package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"phrasebook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "alice", "hash")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = db.Create(ctx, "alice", "other")
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := db.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hash", got.PasswordHash, "first row must be unaffected by the duplicate")

	byID, err := db.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	missing, err := db.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPhraseListRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	var listID int64
	err := db.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		listID, err = db.CreateList(ctx, 1, "Basics", "es", "en")
		if err != nil {
			return err
		}
		if _, err := db.InsertPhrase(ctx, listID, "hola", "hello"); err != nil {
			return err
		}
		_, err = db.InsertPhrase(ctx, listID, "adios", "goodbye")
		return err
	})
	require.NoError(t, err)

	list, err := db.FindByID(ctx, listID)
	require.NoError(t, err)
	assert.Equal(t, "Basics", list.Name)
	assert.Equal(t, "es", list.TargetLang)
	assert.Equal(t, "en", list.SourceLang)
	assert.True(t, list.OwnedBy(1))

	phrases, err := db.FindPhrasesByList(ctx, listID)
	require.NoError(t, err)
	require.Len(t, phrases, 2)
	assert.Equal(t, "hola", phrases[0].TargetLangText)
	assert.Equal(t, "goodbye", phrases[1].SourceLangText)
	assert.Less(t, phrases[0].ID, phrases[1].ID)

	n, err := db.CountPhrases(ctx, listID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	byName, err := db.FindByNameAndOwner(ctx, "Basics", 1)
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, listID, byName.ID)

	other, err := db.FindByNameAndOwner(ctx, "Basics", 2)
	require.NoError(t, err)
	assert.Nil(t, other)

	_, err = db.FindByID(ctx, 999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateList_UniquePerOwner(t *testing.T) {
	db := New()
	ctx := context.Background()

	_, err := db.CreateList(ctx, 1, "N", "es", "en")
	require.NoError(t, err)

	_, err = db.CreateList(ctx, 1, "N", "fr", "en")
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = db.CreateList(ctx, 2, "N", "es", "en")
	require.NoError(t, err)
}

func TestFindByOwner_NewestFirst(t *testing.T) {
	db := New()
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := db.CreateList(ctx, 7, name, "", "")
		require.NoError(t, err)
	}
	_, err := db.CreateList(ctx, 8, "foreign", "", "")
	require.NoError(t, err)

	lists, err := db.FindByOwner(ctx, 7)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, "third", lists[0].Name)
	assert.Equal(t, "first", lists[2].Name)
}

func TestRunInTx_RollbackHidesWrites(t *testing.T) {
	db := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.RunInTx(ctx, func(ctx context.Context) error {
		id, err := db.CreateList(ctx, 1, "N", "", "")
		require.NoError(t, err)
		_, err = db.InsertPhrase(ctx, id, "a", "b")
		require.NoError(t, err)

		// Inside the transaction the staged rows are visible.
		staged, err := db.FindByNameAndOwner(ctx, "N", 1)
		require.NoError(t, err)
		require.NotNil(t, staged)

		// Outside it they are not.
		committed, err := db.FindByNameAndOwner(context.Background(), "N", 1)
		require.NoError(t, err)
		assert.Nil(t, committed)
		return boom
	})
	require.ErrorIs(t, err, boom)

	lists, err := db.FindByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestRunInTx_CancelledContextDoesNotCommit(t *testing.T) {
	db := New()
	ctx, cancel := context.WithCancel(context.Background())

	err := db.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := db.CreateList(txCtx, 1, "N", "", "")
		cancel()
		return err
	})
	require.ErrorIs(t, err, context.Canceled)

	lists, err := db.FindByOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestInsertPhrase_UnknownList(t *testing.T) {
	db := New()
	_, err := db.InsertPhrase(context.Background(), 42, "a", "b")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentTransactions(t *testing.T) {
	db := New()
	ctx := context.Background()
	listID, err := db.CreateList(ctx, 1, "N", "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = db.RunInTx(ctx, func(ctx context.Context) error {
				_, err := db.InsertPhrase(ctx, listID, "t", "s")
				return err
			})
		}()
	}
	wg.Wait()

	n, err := db.CountPhrases(ctx, listID)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
