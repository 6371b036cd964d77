//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"phrasebook/internal/app"
	"phrasebook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupTestDB starts a shared PostgreSQL container once per test run, applies
// the migrations and returns a DB with every table emptied.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("setup test DB: %v", initErr)
	}

	s, err := sql.Open("postgres", sharedDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, Migrate(ctx, s))
	_, err = s.ExecContext(ctx, "TRUNCATE users, phrase_lists, phrases RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return New(s, 5*time.Second)
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()), nil
}

func TestIntegration_DuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Create(ctx, "alice", "h1")
	require.NoError(t, err)
	_, err = db.Create(ctx, "alice", "h2")
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	u, err := db.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h1", u.PasswordHash)
}

func TestIntegration_ImportAtomicity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u, err := db.Create(ctx, "alice", "h")
	require.NoError(t, err)

	svc := app.NewImportService(db, db, app.DiscardLogger())
	_, err = svc.Import(ctx, app.ImportRequest{
		OwnerID: u.ID,
		Name:    "Broken",
		CSV:     strings.NewReader("h1,h2\na,b\nc,d\ne,f\nbad\"quote,x\n"),
	})
	require.Equal(t, domain.KindParse, domain.KindOf(err))

	lists, err := db.FindByOwner(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestIntegration_ImportReuseAndOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u, err := db.Create(ctx, "alice", "h")
	require.NoError(t, err)

	svc := app.NewImportService(db, db, app.DiscardLogger())
	first, err := svc.Import(ctx, app.ImportRequest{OwnerID: u.ID, Name: "N", TargetLang: "es", SourceLang: "en",
		CSV: strings.NewReader("es,en\nhola,hello\n")})
	require.NoError(t, err)
	second, err := svc.Import(ctx, app.ImportRequest{OwnerID: u.ID, Name: "N",
		CSV: strings.NewReader("es,en\nadios,goodbye\n")})
	require.NoError(t, err)
	assert.Equal(t, first.ListID, second.ListID)
	assert.False(t, second.Created)

	phrases, err := db.FindPhrasesByList(ctx, first.ListID)
	require.NoError(t, err)
	require.Len(t, phrases, 2)
	assert.Equal(t, "hola", phrases[0].TargetLangText)
	assert.Equal(t, "adios", phrases[1].TargetLangText)
}

func TestIntegration_ConcurrentImportsConverge(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u, err := db.Create(ctx, "alice", "h")
	require.NoError(t, err)

	svc := app.NewImportService(db, db, app.DiscardLogger())

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Import(ctx, app.ImportRequest{OwnerID: u.ID, Name: "Race",
				CSV: strings.NewReader(fmt.Sprintf("h\nrow%d,x\n", i))})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	lists, err := db.FindByOwner(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, lists, 1)

	n, err := db.CountPhrases(ctx, lists[0].ID)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}

func TestIntegration_CancelledImportRollsBack(t *testing.T) {
	db := setupTestDB(t)
	u, err := db.Create(context.Background(), "alice", "h")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := db.CreateList(ctx, u.ID, "Gone", "", ""); err != nil {
			return err
		}
		cancel()
		_, err := db.InsertPhrase(ctx, 1, "a", "b")
		return err
	})
	require.Error(t, err)

	l, err := db.FindByNameAndOwner(context.Background(), "Gone", u.ID)
	require.NoError(t, err)
	assert.Nil(t, l)
}
