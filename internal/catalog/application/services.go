package application

import (
	"context"
	"io"
	"time"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

const (
	// DefaultPageSize is the number of stores per listing page.
	DefaultPageSize = 4
	// DefaultSearchLimit caps text search results.
	DefaultSearchLimit = 5
	// DefaultNearbyLimit caps proximity results.
	DefaultNearbyLimit = 10
	// DefaultMaxDistanceMeters is the proximity search radius.
	DefaultMaxDistanceMeters = 10000
	// TopStoresLimit caps the ranking.
	TopStoresLimit = 10
	// TopStoresMinReviews is the number of reviews a store needs to be ranked.
	TopStoresMinReviews = 2
	// MaxPhotoWidth is the width uploads are scaled down to.
	MaxPhotoWidth = 800
)

// StoreRepository is the catalog query engine. Every method that returns stores attaches the
// store's reviews; callers never join them separately.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	Update(ctx context.Context, store *domain.Store) error
	FindByID(ctx context.Context, id string) (*domain.Store, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Store, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error)
	// CountSlugMatches counts stores whose slug is base or base-<digits>, case-insensitively,
	// ignoring the store identified by excludeID.
	CountSlugMatches(ctx context.Context, base, excludeID string) (int, error)
	List(ctx context.Context, skip, limit int) ([]domain.Store, error)
	Count(ctx context.Context) (int, error)
	// FindByTag returns stores carrying tag, or every store with at least one tag when tag is empty.
	FindByTag(ctx context.Context, tag string) ([]domain.Store, error)
	TextSearch(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error)
	Nearby(ctx context.Context, query NearbyQuery) ([]domain.NearbyStore, error)
}

// StoreAggregates is the aggregation engine over stores and their reviews.
type StoreAggregates interface {
	TagCounts(ctx context.Context) ([]domain.TagCount, error)
	TopRated(ctx context.Context, minReviews, limit int) ([]domain.RankedStore, error)
}

// UserRepository exposes the slice of the user collection the catalog needs.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// ToggleHeart atomically adds or removes storeID and returns the resulting hearts.
	ToggleHeart(ctx context.Context, userID, storeID string) ([]string, error)
}

// BlobStore persists photo bytes under a caller chosen key.
type BlobStore interface {
	Write(ctx context.Context, key, contentType string, r io.Reader) error
}

// ImageResizer rescales encoded images without changing their format.
type ImageResizer interface {
	// Resize decodes data as format (a mime subtype), caps its width at maxWidth keeping the
	// aspect ratio and re-encodes it in the same format.
	Resize(data []byte, format string, maxWidth int) ([]byte, error)
}

// EventPublisher announces catalog changes to downstream notification consumers.
type EventPublisher interface {
	PublishStoreEvent(ctx context.Context, event StoreEvent) error
}

// NearbyQuery expresses a proximity search around a point.
type NearbyQuery struct {
	Longitude   float64
	Latitude    float64
	MaxDistance float64
	Limit       int
}

// StorePage is one page of the newest-first listing.
type StorePage struct {
	Items      []domain.Store
	Page       int
	PageSize   int
	TotalCount int
	PageCount  int
}

// TagPage pairs the tag frequency list with the stores for the selected tag.
type TagPage struct {
	Tag    string
	Tags   []domain.TagCount
	Stores []domain.Store
}

// StoreEvent is published after a store is created or updated.
type StoreEvent struct {
	Type       string    `json:"type"`
	StoreID    string    `json:"storeId"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	AuthorID   string    `json:"authorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	EventStoreCreated = "store.created"
	EventStoreUpdated = "store.updated"
)

// PhotoUpload is a raw uploaded file awaiting ingestion.
type PhotoUpload struct {
	Data     []byte
	MimeType string
}

// UpsertStoreCommand contains inputs for creating/updating stores.
type UpsertStoreCommand struct {
	Name        string
	Description string
	Tags        []string
	Longitude   float64
	Latitude    float64
	Address     string
	Photo       *PhotoUpload
}

// StoreCommandService describes store write use-cases.
type StoreCommandService interface {
	Create(ctx context.Context, authorID string, cmd UpsertStoreCommand) (*domain.Store, error)
	Update(ctx context.Context, id, actorID string, cmd UpsertStoreCommand) (*domain.Store, error)
	Editable(ctx context.Context, id, actorID string) (*domain.Store, error)
}

// StoreQueryService describes store read use-cases.
type StoreQueryService interface {
	List(ctx context.Context, page int) (*StorePage, error)
	DetailBySlug(ctx context.Context, slug string) (*domain.Store, error)
	ByTag(ctx context.Context, tag string) (*TagPage, error)
	Search(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error)
	Nearby(ctx context.Context, query NearbyQuery) ([]domain.NearbyStore, error)
	Hearted(ctx context.Context, userID string) ([]domain.Store, error)
}

// RankingService describes aggregation use-cases.
type RankingService interface {
	TagsList(ctx context.Context) ([]domain.TagCount, error)
	TopStores(ctx context.Context) ([]domain.RankedStore, error)
}

// HeartService toggles favorites.
type HeartService interface {
	Toggle(ctx context.Context, userID, storeID string) ([]string, error)
}
