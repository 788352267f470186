package memory

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

func author() string {
	return primitive.NewObjectID().Hex()
}

func seedStore(t *testing.T, c *Catalog, name, slug string, lng, lat float64, tags ...string) *domain.Store {
	t.Helper()
	store := &domain.Store{
		Name:      name,
		Slug:      slug,
		Tags:      domain.NewTagList(tags),
		CreatedAt: time.Now().UTC(),
		Location:  domain.Location{Type: domain.PointType, Longitude: lng, Latitude: lat, Address: "somewhere"},
		AuthorID:  author(),
	}
	require.NoError(t, c.Create(context.Background(), store))
	return store
}

func TestCatalogCreateRejectsDuplicateSlugIgnoringCase(t *testing.T) {
	c := NewCatalog()
	seedStore(t, c, "Pizza", "pizza", 0, 0)

	err := c.Create(context.Background(), &domain.Store{Name: "PIZZA", Slug: "PIZZA", AuthorID: author()})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCatalogCountSlugMatches(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	first := seedStore(t, c, "Pizza", "pizza", 0, 0)
	seedStore(t, c, "Pizza", "pizza-2", 0, 0)
	seedStore(t, c, "Pizza Place", "pizza-place", 0, 0)

	n, err := c.CountSlugMatches(ctx, "pizza", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.CountSlugMatches(ctx, "pizza", first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCatalogListIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		require.NoError(t, c.Create(ctx, &domain.Store{Name: name, Slug: name, AuthorID: author(), CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	items, err := c.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Name)
	assert.Equal(t, "b", items[1].Name)

	items, err = c.List(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCatalogReadsAttachReviews(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	store := seedStore(t, c, "Pizza", "pizza", 0, 0)
	c.AddReview(domain.Review{StoreID: store.ID, Rating: 4})

	found, err := c.FindBySlug(ctx, "PIZZA")
	require.NoError(t, err)
	require.Len(t, found.Reviews, 1)
	assert.Equal(t, 4.0, found.Reviews[0].Rating)
}

func TestCatalogFindByIDRejectsMalformedID(t *testing.T) {
	_, err := NewCatalog().FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCatalogNearbyOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	seedStore(t, c, "Far", "far", 0.05, 0)
	seedStore(t, c, "Near", "near", 0.01, 0)
	seedStore(t, c, "Out", "out", 1, 0)

	hits, err := c.Nearby(ctx, application.NearbyQuery{MaxDistance: 10000, Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Near", hits[0].Name)
	assert.Equal(t, "Far", hits[1].Name)
	assert.InDelta(t, 1113, hits[0].Distance, 5)
}

func TestCatalogTextSearchScoresTerms(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	require.NoError(t, c.Create(ctx, &domain.Store{Name: "Coffee Bar", Slug: "coffee-bar", Description: "coffee and cake", AuthorID: author()}))
	require.NoError(t, c.Create(ctx, &domain.Store{Name: "Tea House", Slug: "tea-house", Description: "no coffee here", AuthorID: author()}))
	require.NoError(t, c.Create(ctx, &domain.Store{Name: "Bakery", Slug: "bakery", AuthorID: author()}))

	hits, err := c.TextSearch(ctx, "Coffee", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Coffee Bar", hits[0].Name)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestCatalogTagCounts(t *testing.T) {
	c := NewCatalog()
	seedStore(t, c, "a", "a", 0, 0, "wifi", "late")
	seedStore(t, c, "b", "b", 0, 0, "wifi")
	seedStore(t, c, "c", "c", 0, 0, "bar")

	counts, err := c.TagCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.TagCount{
		{Tag: "wifi", Count: 2},
		{Tag: "bar", Count: 1},
		{Tag: "late", Count: 1},
	}, counts)
}

func TestCatalogTopRated(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	a := seedStore(t, c, "a", "a", 0, 0)
	b := seedStore(t, c, "b", "b", 0, 0)
	lonely := seedStore(t, c, "c", "c", 0, 0)
	for _, r := range []float64{3, 4} {
		c.AddReview(domain.Review{StoreID: a.ID, Rating: r})
	}
	for _, r := range []float64{5, 4, 5} {
		c.AddReview(domain.Review{StoreID: b.ID, Rating: r})
	}
	c.AddReview(domain.Review{StoreID: lonely.ID, Rating: 5})

	ranked, err := c.TopRated(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, b.ID, ranked[0].ID)
	assert.InDelta(t, 14.0/3.0, ranked[0].AverageRating, 1e-9)
	assert.Equal(t, 3, ranked[0].ReviewCount)
	assert.InDelta(t, 3.5, ranked[1].AverageRating, 1e-9)
}

func TestCatalogTopRatedBreaksTiesByIDAndCaps(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	ids := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("store-%02d", i)
		store := seedStore(t, c, name, name, 0, 0)
		ids = append(ids, store.ID)
		for _, r := range []float64{4, 4} {
			c.AddReview(domain.Review{StoreID: store.ID, Rating: r})
		}
	}
	sort.Strings(ids)

	ranked, err := c.TopRated(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 10)
	for i, r := range ranked {
		assert.Equal(t, ids[i], r.ID)
		assert.InDelta(t, 4.0, r.AverageRating, 1e-9)
	}
}

func TestCatalogRejectsMalformedAuthor(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()

	err := c.Create(ctx, &domain.Store{Name: "Cafe", Slug: "cafe", AuthorID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, c.Len())

	store := seedStore(t, c, "Cafe", "cafe", 0, 0)
	store.AuthorID = "user-1"
	assert.ErrorIs(t, c.Update(ctx, store), domain.ErrValidation)
}

func TestCatalogListRejectsNegativeSkip(t *testing.T) {
	c := NewCatalog()
	seedStore(t, c, "Cafe", "cafe", 0, 0)

	_, err := c.List(context.Background(), -4, 4)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUsersToggleHeartUpsertsAndFlips(t *testing.T) {
	ctx := context.Background()
	users := NewCatalog().Users()
	userID := primitive.NewObjectID().Hex()
	storeID := primitive.NewObjectID().Hex()

	hearts, err := users.ToggleHeart(ctx, userID, storeID)
	require.NoError(t, err)
	assert.Equal(t, []string{storeID}, hearts)

	hearts, err = users.ToggleHeart(ctx, userID, storeID)
	require.NoError(t, err)
	assert.Empty(t, hearts)

	_, err = users.ToggleHeart(ctx, userID, "bogus")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
