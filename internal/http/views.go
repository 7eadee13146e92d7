package http

import (
	"time"

	"placeshare/internal/domain"
)

type TokenResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public view of a user; it never carries the credential.
type UserResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Avatar    string   `json:"avatar"`
	Places    []string `json:"places"`
	CreatedAt string   `json:"created_at"`
}

type PlaceResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Image       string `json:"image"`
	Owner       string `json:"owner"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func userToResponse(user domain.User) UserResponse {
	places := user.Places
	if places == nil {
		places = []string{}
	}
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Avatar:    user.Avatar,
		Places:    places,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func placeToResponse(place domain.Place) PlaceResponse {
	return PlaceResponse{
		ID:          place.ID,
		Title:       place.Title,
		Description: place.Description,
		Address:     place.Address,
		Image:       place.Image,
		Owner:       place.OwnerID,
		CreatedAt:   place.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   place.UpdatedAt.Format(time.RFC3339),
	}
}
