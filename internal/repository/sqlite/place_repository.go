package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"placeshare/internal/dbx"
	"placeshare/internal/domain"
	"placeshare/internal/repository"
)

const placeColumns = `id, title, description, address, image, owner_id, created_at, updated_at`

type PlaceRepository struct {
	db dbx.DBTX
}

func NewPlaceRepository(db dbx.DBTX) repository.PlaceRepository {
	return &PlaceRepository{db: db}
}

func (r *PlaceRepository) Create(ctx context.Context, place *domain.Place) error {
	now := time.Now().UTC()
	place.CreatedAt = now
	place.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO places (id, title, description, address, image, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		place.ID,
		place.Title,
		place.Description,
		place.Address,
		place.Image,
		place.OwnerID,
		place.CreatedAt,
		place.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert place: %w", repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

func (r *PlaceRepository) Get(ctx context.Context, id string) (*domain.Place, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id = ?`, id)
	return scanPlace(row)
}

// ListByOwner returns the owner's places in no particular order; callers
// order them by the owner's place list.
func (r *PlaceRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Place, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+placeColumns+`
FROM places
WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, *place)
	}
	return places, rows.Err()
}

func (r *PlaceRepository) UpdateDetails(ctx context.Context, place *domain.Place) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE places
SET title = ?, description = ?, updated_at = ?
WHERE id = ?`,
		place.Title,
		place.Description,
		now,
		place.ID,
	)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	if err := expectAffected(res, "update place", place.ID); err != nil {
		return err
	}
	place.UpdatedAt = now
	return nil
}

func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return expectAffected(res, "delete place", id)
}

func expectAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, repository.ErrNotFound)
	}
	return nil
}

func scanPlace(row interface {
	Scan(dest ...any) error
}) (*domain.Place, error) {
	var place domain.Place
	if err := row.Scan(
		&place.ID,
		&place.Title,
		&place.Description,
		&place.Address,
		&place.Image,
		&place.OwnerID,
		&place.CreatedAt,
		&place.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("place: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan place: %w", err)
	}
	return &place, nil
}
