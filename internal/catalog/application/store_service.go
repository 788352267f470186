package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// storeCommandService implements StoreCommandService.
type storeCommandService struct {
	repo   StoreRepository
	slugs  *SlugGenerator
	photos *PhotoIngester
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewStoreCommandService(repo StoreRepository, slugs *SlugGenerator, photos *PhotoIngester, events EventPublisher, logger *slog.Logger) StoreCommandService {
	return &storeCommandService{
		repo:   repo,
		slugs:  slugs,
		photos: photos,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create runs photo ingestion, then slug computation, then persistence, in that order.
func (s *storeCommandService) Create(ctx context.Context, authorID string, cmd UpsertStoreCommand) (*domain.Store, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, domain.Validationf("you must supply an author")
	}
	store, err := buildStore(cmd)
	if err != nil {
		return nil, err
	}

	photo, err := s.photos.Ingest(ctx, cmd.Photo)
	if err != nil {
		return nil, err
	}
	store.Photo = photo

	slug, err := s.slugs.Compute(ctx, store.Name, "")
	if err != nil {
		return nil, err
	}
	store.Slug = slug
	store.AuthorID = authorID
	store.CreatedAt = s.now()

	if err := s.repo.Create(ctx, store); err != nil {
		return nil, err
	}
	s.publish(ctx, EventStoreCreated, store)
	return store, nil
}

// Update verifies ownership before touching anything, then follows the same ordering as Create.
// The slug is recomputed only when the trimmed name changed.
func (s *storeCommandService) Update(ctx context.Context, id, actorID string, cmd UpsertStoreCommand) (*domain.Store, error) {
	current, err := s.Editable(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	next, err := buildStore(cmd)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.AuthorID = current.AuthorID
	next.CreatedAt = current.CreatedAt
	next.Slug = current.Slug
	next.Photo = current.Photo

	photo, err := s.photos.Ingest(ctx, cmd.Photo)
	if err != nil {
		return nil, err
	}
	if photo != "" {
		next.Photo = photo
	}

	if next.Name != current.Name {
		slug, err := s.slugs.Compute(ctx, next.Name, current.ID)
		if err != nil {
			return nil, err
		}
		next.Slug = slug
	}
	next.Location.Type = domain.PointType

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	s.publish(ctx, EventStoreUpdated, next)

	return s.repo.FindByID(ctx, next.ID)
}

// Editable loads a store for editing and rejects actors who do not own it.
func (s *storeCommandService) Editable(ctx context.Context, id, actorID string) (*domain.Store, error) {
	store, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if !store.OwnedBy(actorID) {
		return nil, domain.ErrForbidden
	}
	return store, nil
}

func (s *storeCommandService) publish(ctx context.Context, eventType string, store *domain.Store) {
	if s.events == nil {
		return
	}
	event := StoreEvent{
		Type:       eventType,
		StoreID:    store.ID,
		Slug:       store.Slug,
		Name:       store.Name,
		AuthorID:   store.AuthorID,
		OccurredAt: s.now(),
	}
	if err := s.events.PublishStoreEvent(ctx, event); err != nil {
		s.logger.Warn("store event publish failed", "type", eventType, "storeId", store.ID, "error", err)
	}
}

func buildStore(cmd UpsertStoreCommand) (*domain.Store, error) {
	name, err := domain.NewStoreName(cmd.Name)
	if err != nil {
		return nil, err
	}
	location, err := domain.NewLocation(cmd.Longitude, cmd.Latitude, cmd.Address)
	if err != nil {
		return nil, err
	}
	return &domain.Store{
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		Tags:        domain.NewTagList(cmd.Tags),
		Location:    location,
	}, nil
}
