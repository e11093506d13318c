package storage

import (
	"context"

	"arts_scrooper/models"
)

// EventStore is the persistence gateway for the event list. WriteAll
// replaces the whole collection.
type EventStore interface {
	ReadAll(ctx context.Context) ([]models.Event, error)
	WriteAll(ctx context.Context, events []models.Event) error
}
