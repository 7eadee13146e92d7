package domain

import "time"

// Place is a location published by exactly one user.
type Place struct {
	ID          string
	Title       string
	Description string
	Address     string
	Image       string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlaceAttributes carries the client-supplied fields of a new place.
type PlaceAttributes struct {
	Title       string
	Description string
	Address     string
	Image       string
}
