package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"placeshare/internal/auth"
	"placeshare/internal/dbx"
	"placeshare/internal/domain"
	"placeshare/internal/metrics"
	"placeshare/internal/repository"
)

// PlaceService owns every write that touches a place. Creating and deleting
// a place also rewrites the owner's place list; both writes commit together
// or not at all.
type PlaceService interface {
	CreatePlace(ctx context.Context, ownerID string, attrs domain.PlaceAttributes) (*domain.Place, error)
	UpdatePlace(ctx context.Context, placeID, requestorID, title, description string) (*domain.Place, error)
	DeletePlace(ctx context.Context, placeID, requestorID string) error
	GetPlace(ctx context.Context, placeID string) (*domain.Place, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Place, error)
}

type placeService struct {
	db      *sql.DB
	repos   repository.Manager
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

func NewPlaceService(db *sql.DB, repos repository.Manager, m *metrics.Metrics, logger logrus.FieldLogger) PlaceService {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &placeService{
		db:      db,
		repos:   repos,
		metrics: m,
		logger:  logger,
	}
}

func (s *placeService) CreatePlace(ctx context.Context, ownerID string, attrs domain.PlaceAttributes) (*domain.Place, error) {
	if err := validateAttributes(attrs); err != nil {
		return nil, err
	}

	if _, err := s.repos.Users(s.db).GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// the id came from a verified token, so a missing user is a
			// consistency fault rather than a client error
			s.logger.WithField("user_id", ownerID).Warn("create place: token holder has no user record")
			return nil, domain.Server("owner missing", domain.ErrUserNotFound.Wrap(err))
		}
		return nil, domain.Server("load owner", err)
	}

	place := &domain.Place{
		ID:          uuid.NewString(),
		Title:       attrs.Title,
		Description: attrs.Description,
		Address:     attrs.Address,
		Image:       attrs.Image,
		OwnerID:     ownerID,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)
		owner, err := users.GetByID(ctx, ownerID)
		if err != nil {
			return err
		}
		if err := s.repos.Places(tx).Create(ctx, place); err != nil {
			return err
		}
		owner.PrependPlace(place.ID)
		return users.UpdatePlaces(ctx, owner)
	})
	s.metrics.ObserveTransaction("create", err)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", ownerID).Error("create place transaction aborted")
		return nil, domain.Transaction("create place", err)
	}

	return place, nil
}

func (s *placeService) UpdatePlace(ctx context.Context, placeID, requestorID, title, description string) (*domain.Place, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return nil, domain.Validation("title and description are required")
	}

	places := s.repos.Places(s.db)
	place, err := s.loadPlace(ctx, places, placeID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(requestorID, place.OwnerID); err != nil {
		return nil, err
	}

	place.Title = title
	place.Description = description
	if err := places.UpdateDetails(ctx, place); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPlaceNotFound.Wrap(err)
		}
		return nil, domain.Server("update place", err)
	}
	return place, nil
}

func (s *placeService) DeletePlace(ctx context.Context, placeID, requestorID string) error {
	place, err := s.loadPlace(ctx, s.repos.Places(s.db), placeID)
	if err != nil {
		return err
	}
	if err := auth.Authorize(requestorID, place.OwnerID); err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Places(tx).Delete(ctx, place.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// lost a race with another delete of the same place
				return domain.ErrPlaceNotFound.Wrap(err)
			}
			return err
		}
		users := s.repos.Users(tx)
		owner, err := users.GetByID(ctx, place.OwnerID)
		if err != nil {
			return err
		}
		owner.RemovePlace(place.ID)
		return users.UpdatePlaces(ctx, owner)
	})
	s.metrics.ObserveTransaction("delete", err)
	if err != nil {
		if errors.Is(err, domain.ErrPlaceNotFound) {
			return err
		}
		s.logger.WithError(err).WithField("place_id", place.ID).Error("delete place transaction aborted")
		return domain.Transaction("delete place", err)
	}
	return nil
}

func (s *placeService) GetPlace(ctx context.Context, placeID string) (*domain.Place, error) {
	return s.loadPlace(ctx, s.repos.Places(s.db), placeID)
}

// ListByUser returns the user's places in the order of the user's place list.
func (s *placeService) ListByUser(ctx context.Context, userID string) ([]domain.Place, error) {
	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound.Wrap(err)
		}
		return nil, domain.Server("get user", err)
	}

	owned, err := s.repos.Places(s.db).ListByOwner(ctx, userID)
	if err != nil {
		return nil, domain.Server("list places", err)
	}

	byID := make(map[string]domain.Place, len(owned))
	for _, p := range owned {
		byID[p.ID] = p
	}
	out := make([]domain.Place, 0, len(user.Places))
	for _, id := range user.Places {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *placeService) loadPlace(ctx context.Context, places repository.PlaceRepository, placeID string) (*domain.Place, error) {
	place, err := places.Get(ctx, placeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPlaceNotFound.Wrap(err)
		}
		return nil, domain.Server("get place", err)
	}
	return place, nil
}

func validateAttributes(attrs domain.PlaceAttributes) error {
	switch {
	case strings.TrimSpace(attrs.Title) == "":
		return domain.Validation("title is required")
	case strings.TrimSpace(attrs.Description) == "":
		return domain.Validation("description is required")
	case strings.TrimSpace(attrs.Address) == "":
		return domain.Validation("address is required")
	case strings.TrimSpace(attrs.Image) == "":
		return domain.Validation("image is required")
	}
	return nil
}
