package shared

import "github.com/google/uuid"

// Actor identifies who performs a write. It is passed explicitly into every
// operation that stamps audit fields.
type Actor struct {
	UserID uuid.UUID
	Email  string
}

// NewActor creates an actor for a user ID
func NewActor(userID uuid.UUID) Actor {
	return Actor{UserID: userID}
}

// IsZero reports whether no user is attached
func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil
}

// Require returns ErrMissingActor when no user is attached
func (a Actor) Require() error {
	if a.IsZero() {
		return ErrMissingActor
	}
	return nil
}
