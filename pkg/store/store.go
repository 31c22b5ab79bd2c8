// Package store persists tracked items and their owning users.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an item or user does not exist.
var ErrNotFound = errors.New("not found")

// Item is one tracked product: a user, a source URL and a price threshold.
// Prices are stored in the minor currency unit (grosze).
type Item struct {
	ID             string    `db:"id"`
	SourceURL      string    `db:"source_url"`
	DisplayName    string    `db:"display_name"`
	LastKnownPrice int       `db:"last_known_price"`
	ThresholdPrice int       `db:"threshold_price"`
	OwnerID        string    `db:"owner_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// User owns items and receives price-drop mail. The watcher core only ever
// reads users; they are created by whatever registration surface sits in
// front of the daemon.
type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Store is the persistence interface consumed by the watcher core.
type Store interface {
	CreateItem(ctx context.Context, item Item) error
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	// UpdateThreshold overwrites the owner-editable threshold. Last writer
	// wins with respect to concurrent cycle runs.
	UpdateThreshold(ctx context.Context, id string, threshold int) error
	// UpdateLastKnownPrice records the latest successful extraction. It is a
	// single UPDATE so it cannot interleave with a concurrent threshold
	// write on the same row.
	UpdateLastKnownPrice(ctx context.Context, id string, price int) error
	DeleteItem(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u User) error
	// RecipientFor resolves an owner id to the notification address.
	RecipientFor(ctx context.Context, ownerID string) (string, error)

	// LastCycleAt / SetLastCycleAt persist the scheduler's last completed
	// run so the misfire grace window survives restarts. A zero time means
	// no cycle has ever completed.
	LastCycleAt(ctx context.Context) (time.Time, error)
	SetLastCycleAt(ctx context.Context, t time.Time) error
}
