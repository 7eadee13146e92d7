package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"placeshare/internal/dbx"
	"placeshare/internal/domain"
	"placeshare/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db, nil))
	return db
}

func newUser(email string) *domain.User {
	return &domain.User{
		ID:           uuid.NewString(),
		Name:         "Alice",
		Email:        email,
		PasswordHash: "hash",
		Avatar:       "https://www.gravatar.com/avatar/x",
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db, nil))
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	u := newUser("alice@example.com")
	require.NoError(t, repo.Create(ctx, u))
	require.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, []string{}, got.Places)
	require.Equal(t, int64(0), got.Version)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	require.NoError(t, repo.Create(ctx, newUser("dup@example.com")))
	err := repo.Create(ctx, newUser("dup@example.com"))
	require.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	require.NoError(t, repo.Create(ctx, newUser("a@example.com")))
	require.NoError(t, repo.Create(ctx, newUser("b@example.com")))

	users, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestUserRepository_UpdatePlacesVersioned(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	u := newUser("v@example.com")
	require.NoError(t, repo.Create(ctx, u))

	stale := *u

	u.PrependPlace("p1")
	require.NoError(t, repo.UpdatePlaces(ctx, u))
	require.Equal(t, int64(1), u.Version)

	stale.PrependPlace("p2")
	err := repo.UpdatePlaces(ctx, &stale)
	require.ErrorIs(t, err, repository.ErrConflict)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, got.Places)
	require.Equal(t, int64(1), got.Version)
}

func TestPlaceRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	places := NewPlaceRepository(db)

	owner := newUser("owner@example.com")
	require.NoError(t, users.Create(ctx, owner))

	p := &domain.Place{
		ID:          uuid.NewString(),
		Title:       "Cafe",
		Description: "Corner shop",
		Address:     "1 Main St",
		Image:       "http://x/1.png",
		OwnerID:     owner.ID,
	}
	require.NoError(t, places.Create(ctx, p))

	got, err := places.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Cafe", got.Title)
	require.Equal(t, owner.ID, got.OwnerID)

	list, err := places.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	p.Title = "Bistro"
	p.Description = "Renamed"
	require.NoError(t, places.UpdateDetails(ctx, p))
	got, err = places.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Bistro", got.Title)
	require.Equal(t, "1 Main St", got.Address)

	require.NoError(t, places.Delete(ctx, p.ID))
	require.ErrorIs(t, places.Delete(ctx, p.ID), repository.ErrNotFound)
	_, err = places.Get(ctx, p.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	missing := &domain.Place{ID: uuid.NewString()}
	require.ErrorIs(t, places.UpdateDetails(ctx, missing), repository.ErrNotFound)
}

func TestPlaceRepository_OwnerMustExist(t *testing.T) {
	ctx := context.Background()
	places := NewPlaceRepository(openTestDB(t))

	err := places.Create(ctx, &domain.Place{ID: uuid.NewString(), Title: "x", OwnerID: uuid.NewString()})
	require.Error(t, err)
}

func TestOpen_ForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	// no idle connections: each query below dials a fresh one
	db.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var enabled int
		require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled))
		require.Equal(t, 1, enabled)
	}

	err := NewPlaceRepository(db).Create(ctx, &domain.Place{ID: uuid.NewString(), Title: "x", OwnerID: uuid.NewString()})
	require.Error(t, err)
}

func TestPlaceRepository_ListByOwnerFiltersByOwner(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	places := NewPlaceRepository(db)

	alice := newUser("alice@example.com")
	bob := newUser("bob@example.com")
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	var aliceIDs []string
	for _, owner := range []*domain.User{alice, alice, bob} {
		p := &domain.Place{ID: uuid.NewString(), Title: "t", Description: "d", Address: "a", Image: "i", OwnerID: owner.ID}
		require.NoError(t, places.Create(ctx, p))
		if owner == alice {
			aliceIDs = append(aliceIDs, p.ID)
		}
	}

	list, err := places.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	got := make([]string, len(list))
	for i := range list {
		got[i] = list[i].ID
	}
	require.ElementsMatch(t, aliceIDs, got)
}

func TestManager_BindsToTransaction(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewManager()

	u := newUser("tx@example.com")
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := m.Users(tx).Create(ctx, u); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = m.Users(db).GetByID(ctx, u.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdatePlaces_SQL(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+places\s*=\s*\?,\s*version\s*=\s*version\s*\+\s*1,\s*updated_at\s*=\s*\?\s+WHERE\s+id\s*=\s*\?\s+AND\s+version\s*=\s*\?\s*$`
	mock.ExpectExec(q).
		WithArgs(`["p2","p1"]`, sqlmock.AnyArg(), "u1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &domain.User{ID: "u1", Places: []string{"p2", "p1"}, Version: 3}
	require.NoError(t, NewUserRepository(db).UpdatePlaces(context.Background(), u))
	require.Equal(t, int64(4), u.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_UniqueFromDriver(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.email"))

	err = NewUserRepository(db).Create(context.Background(), newUser("x@example.com"))
	require.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestDecodePlaces(t *testing.T) {
	ids, err := decodePlaces("")
	require.NoError(t, err)
	require.Equal(t, []string{}, ids)

	ids, err = decodePlaces("null")
	require.NoError(t, err)
	require.Equal(t, []string{}, ids)

	_, err = decodePlaces("{")
	require.Error(t, err)
}
