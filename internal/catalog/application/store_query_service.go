package application

import (
	"context"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// storeQueryService is the concrete implementation of StoreQueryService.
type storeQueryService struct {
	repo       StoreRepository
	aggregates StoreAggregates
	users      UserRepository
	pageSize   int
}

// NewStoreQueryService creates a new store query service.
func NewStoreQueryService(repo StoreRepository, aggregates StoreAggregates, users UserRepository) StoreQueryService {
	return &storeQueryService{
		repo:       repo,
		aggregates: aggregates,
		users:      users,
		pageSize:   DefaultPageSize,
	}
}

// List returns a newest-first page. A page past the end yields *domain.PageOutOfRangeError
// instead of an empty result.
func (s *storeQueryService) List(ctx context.Context, page int) (*StorePage, error) {
	if page < 1 {
		return nil, domain.Validationf("page must be >= 1")
	}
	// pages whose offset does not fit in an int are past the end of any listing
	if page > math.MaxInt/s.pageSize {
		total, err := s.repo.Count(ctx)
		if err != nil {
			return nil, err
		}
		return nil, &domain.PageOutOfRangeError{Requested: page, LastPage: max(pageCount(total, s.pageSize), 1)}
	}
	skip := (page - 1) * s.pageSize

	var (
		items []domain.Store
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, skip, s.pageSize)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pages := pageCount(total, s.pageSize)
	if len(items) == 0 && skip > 0 {
		return nil, &domain.PageOutOfRangeError{Requested: page, LastPage: max(pages, 1)}
	}

	return &StorePage{
		Items:      items,
		Page:       page,
		PageSize:   s.pageSize,
		TotalCount: total,
		PageCount:  pages,
	}, nil
}

func pageCount(total, pageSize int) int {
	return (total + pageSize - 1) / pageSize
}

// DetailBySlug resolves the store with its reviews and author.
func (s *storeQueryService) DetailBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.ErrNotFound
	}
	store, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	author, err := s.users.FindByID(ctx, store.AuthorID)
	switch {
	case err == nil:
		store.Author = author
	case errorsIsNotFound(err):
		// authors removed upstream leave the store readable
	default:
		return nil, err
	}
	return store, nil
}

func (s *storeQueryService) ByTag(ctx context.Context, tag string) (*TagPage, error) {
	tag = strings.TrimSpace(tag)

	result := &TagPage{Tag: tag}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result.Tags, err = s.aggregates.TagCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		result.Stores, err = s.repo.FindByTag(gctx, tag)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *storeQueryService) Search(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Validationf("search query is required")
	}
	if limit <= 0 || limit > DefaultSearchLimit {
		limit = DefaultSearchLimit
	}
	return s.repo.TextSearch(ctx, query, limit)
}

func (s *storeQueryService) Nearby(ctx context.Context, query NearbyQuery) ([]domain.NearbyStore, error) {
	if err := domain.ValidateCoordinates(query.Longitude, query.Latitude); err != nil {
		return nil, err
	}
	if query.MaxDistance <= 0 {
		query.MaxDistance = DefaultMaxDistanceMeters
	}
	if query.Limit <= 0 || query.Limit > DefaultNearbyLimit {
		query.Limit = DefaultNearbyLimit
	}
	return s.repo.Nearby(ctx, query)
}

// Hearted lists the stores the user has favorited.
func (s *storeQueryService) Hearted(ctx context.Context, userID string) ([]domain.Store, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errorsIsNotFound(err) {
			return []domain.Store{}, nil
		}
		return nil, err
	}
	if len(user.Hearts) == 0 {
		return []domain.Store{}, nil
	}
	return s.repo.FindByIDs(ctx, user.Hearts)
}
