package domain

import "time"

// User represents a registered account. Places holds the ids of the places the
// user owns, newest first.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Avatar       string
	Places       []string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPlace reports whether id is present in the user's place list.
func (u *User) HasPlace(id string) bool {
	for _, p := range u.Places {
		if p == id {
			return true
		}
	}
	return false
}

// PrependPlace puts id at the head of the place list.
func (u *User) PrependPlace(id string) {
	places := make([]string, 0, len(u.Places)+1)
	places = append(places, id)
	u.Places = append(places, u.Places...)
}

// RemovePlace drops every occurrence of id, keeping the remaining order.
// It reports whether anything was removed.
func (u *User) RemovePlace(id string) bool {
	kept := make([]string, 0, len(u.Places))
	for _, p := range u.Places {
		if p != id {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(u.Places)
	u.Places = kept
	return removed
}
