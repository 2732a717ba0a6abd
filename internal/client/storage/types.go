package storage

import (
	"fmt"

	"github.com/atinyakov/carebook/internal/models"
)

// CredentialStore persists the session credential and the profile snapshot
// of the signed-in user. Implementations must write the pair atomically and
// never return half of it.
type CredentialStore interface {
	// Save writes both entries, replacing any previous pair.
	Save(token string, user models.User) error
	// Load returns the stored pair, or ("", nil, nil) when either entry is missing.
	Load() (string, *models.User, error)
	// Clear removes both entries. Clearing an empty store is not an error.
	Clear() error
}

// StorageError reports that the underlying medium rejected an operation.
type StorageError struct {
	Op  string // "save", "load" or "clear"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credential store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Entry keys, shared by every implementation.
const (
	tokenKey = "token"
	userKey  = "user"
)

// snapshot is the persisted layout of the user profile.
type snapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Contact  string `json:"contact,omitempty"`
	Address  string `json:"address,omitempty"`
	Location string `json:"location,omitempty"`
}

func snapshotOf(u models.User) snapshot {
	return snapshot{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Contact:  u.Contact,
		Address:  u.Address,
		Location: u.Location,
	}
}

func (s snapshot) user() models.User {
	return models.User{
		ID:       s.ID,
		Name:     s.Name,
		Email:    s.Email,
		Contact:  s.Contact,
		Address:  s.Address,
		Location: s.Location,
	}
}
