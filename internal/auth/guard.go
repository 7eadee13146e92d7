package auth

import (
	"context"

	"placeshare/internal/domain"
)

// Authorize allows a mutation only when the requestor owns the resource.
func Authorize(requestorID, ownerID string) error {
	if requestorID == "" || requestorID != ownerID {
		return domain.ErrNotOwner
	}
	return nil
}

type userIDKey struct{}

// WithUserID attaches a verified identity to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom returns the identity attached by WithUserID.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}
