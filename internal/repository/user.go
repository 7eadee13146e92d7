package repository

import (
	"context"
	"errors"

	"placeshare/internal/dbx"
	"placeshare/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when a versioned update loses to a concurrent writer.
	ErrConflict = errors.New("version conflict")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// UpdatePlaces persists user.Places if the stored version still equals
	// user.Version, then increments user.Version.
	UpdatePlaces(ctx context.Context, user *domain.User) error
}

// PlaceRepository defines persistence operations for Place entities.
type PlaceRepository interface {
	Create(ctx context.Context, place *domain.Place) error
	Get(ctx context.Context, id string) (*domain.Place, error)
	// ListByOwner is unordered.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Place, error)
	UpdateDetails(ctx context.Context, place *domain.Place) error
	Delete(ctx context.Context, id string) error
}

// Manager binds repositories to a handle, which is either the pool or an open
// transaction.
type Manager interface {
	Users(db dbx.DBTX) UserRepository
	Places(db dbx.DBTX) PlaceRepository
}
