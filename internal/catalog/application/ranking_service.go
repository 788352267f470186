package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// rankingService implements RankingService.
type rankingService struct {
	aggregates StoreAggregates
}

func NewRankingService(aggregates StoreAggregates) RankingService {
	return &rankingService{aggregates: aggregates}
}

// TagsList returns every tag with the number of stores carrying it, most used first.
func (s *rankingService) TagsList(ctx context.Context) ([]domain.TagCount, error) {
	return s.aggregates.TagCounts(ctx)
}

// TopStores ranks stores with at least two reviews by average rating. Equal averages are
// ordered by store id ascending.
func (s *rankingService) TopStores(ctx context.Context) ([]domain.RankedStore, error) {
	return s.aggregates.TopRated(ctx, TopStoresMinReviews, TopStoresLimit)
}

// heartService implements HeartService.
type heartService struct {
	users UserRepository
}

func NewHeartService(users UserRepository) HeartService {
	return &heartService{users: users}
}

// Toggle removes storeID from the user's hearts if present, otherwise adds it. Callers read the
// returned set to learn which way it went.
func (s *heartService) Toggle(ctx context.Context, userID, storeID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	storeID = strings.TrimSpace(storeID)
	if userID == "" || storeID == "" {
		return nil, domain.Validationf("user and store are required")
	}
	return s.users.ToggleHeart(ctx, userID, storeID)
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
