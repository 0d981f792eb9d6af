package storage

import (
	"context"

	"car-price-estimator/models"
)

// ListingSource is the interface any reference dataset backend must satisfy.
type ListingSource interface {
	Load(ctx context.Context) ([]models.ListingRecord, error)
}

// ListingWriter persists reference listings, used when seeding a database.
type ListingWriter interface {
	Write(ctx context.Context, listings []models.ListingRecord) error
	Close() error
}
