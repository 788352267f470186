package memory

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// earthRadiusMeters matches the sphere MongoDB uses for 2dsphere distances.
const earthRadiusMeters = 6378100.0

// Catalog is an in-memory implementation of the catalog ports, used for tests and for running
// the API without a database.
type Catalog struct {
	mu      sync.RWMutex
	stores  map[string]domain.Store
	reviews []domain.Review
	users   map[string]domain.User
	err     error
	newID   func() string
}

var (
	_ application.StoreRepository = (*Catalog)(nil)
	_ application.StoreAggregates = (*Catalog)(nil)
	_ application.UserRepository  = (*Users)(nil)
)

func NewCatalog() *Catalog {
	return &Catalog{
		stores: make(map[string]domain.Store),
		users:  make(map[string]domain.User),
		newID:  func() string { return primitive.NewObjectID().Hex() },
	}
}

// WithError makes every subsequent call fail with err. Pass nil to clear it.
func (c *Catalog) WithError(err error) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	return c
}

// PutUser inserts or replaces a user.
func (c *Catalog) PutUser(user domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	user.Hearts = append([]string(nil), user.Hearts...)
	c.users[user.ID] = user
}

// AddReview records a review and returns it with its generated id.
func (c *Catalog) AddReview(review domain.Review) domain.Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	if review.ID == "" {
		review.ID = c.newID()
	}
	c.reviews = append(c.reviews, review)
	return review
}

// Len reports how many stores are held.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stores)
}

func (c *Catalog) Ping(context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Create and Update reject authors that are not object ids, as the database adapter does.
func (c *Catalog) Create(_ context.Context, store *domain.Store) error {
	if err := validateID(store.AuthorID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if store.ID == "" {
		store.ID = c.newID()
	}
	if _, exists := c.stores[store.ID]; exists {
		return domain.ErrConflict
	}
	if c.slugTakenLocked(store.Slug, store.ID) {
		return domain.ErrConflict
	}
	c.stores[store.ID] = cloneStore(*store)
	return nil
}

func (c *Catalog) Update(_ context.Context, store *domain.Store) error {
	if err := validateID(store.AuthorID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if _, ok := c.stores[store.ID]; !ok {
		return domain.ErrNotFound
	}
	if c.slugTakenLocked(store.Slug, store.ID) {
		return domain.ErrConflict
	}
	c.stores[store.ID] = cloneStore(*store)
	return nil
}

func (c *Catalog) FindByID(_ context.Context, id string) (*domain.Store, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	store, ok := c.stores[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	result := c.withReviewsLocked(store)
	return &result, nil
}

func (c *Catalog) FindBySlug(_ context.Context, slug string) (*domain.Store, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	for _, store := range c.stores {
		if strings.EqualFold(store.Slug, slug) {
			result := c.withReviewsLocked(store)
			return &result, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *Catalog) FindByIDs(_ context.Context, ids []string) ([]domain.Store, error) {
	for _, id := range ids {
		if err := validateID(id); err != nil {
			return nil, err
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.collectLocked(func(s domain.Store) bool {
		for _, id := range ids {
			if s.ID == id {
				return true
			}
		}
		return false
	}), nil
}

func (c *Catalog) CountSlugMatches(_ context.Context, base, excludeID string) (int, error) {
	pattern, err := regexp.Compile("(?i)^(" + regexp.QuoteMeta(base) + ")((-[0-9]*)?)$")
	if err != nil {
		return 0, domain.Validationf("slug pattern: %v", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return 0, c.err
	}
	count := 0
	for id, store := range c.stores {
		if id == excludeID {
			continue
		}
		if pattern.MatchString(store.Slug) {
			count++
		}
	}
	return count, nil
}

func (c *Catalog) List(_ context.Context, skip, limit int) ([]domain.Store, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	all := c.collectLocked(func(domain.Store) bool { return true })
	if skip < 0 {
		return nil, domain.Validationf("skip must not be negative")
	}
	if skip >= len(all) {
		return []domain.Store{}, nil
	}
	end := len(all)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return all[skip:end], nil
}

func (c *Catalog) Count(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return 0, c.err
	}
	return len(c.stores), nil
}

func (c *Catalog) FindByTag(_ context.Context, tag string) ([]domain.Store, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.collectLocked(func(s domain.Store) bool {
		if tag == "" {
			return len(s.Tags) > 0
		}
		return s.Tags.Contains(tag)
	}), nil
}

// TextSearch scores each store by how many query terms occur in its name and description.
// It approximates the database text index closely enough for tests and local runs.
func (c *Catalog) TextSearch(_ context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, domain.Validationf("search query is required")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}

	var hits []domain.ScoredStore
	for _, store := range c.stores {
		words := tokenize(store.Name + " " + store.Description)
		score := 0.0
		for _, term := range terms {
			for _, w := range words {
				if w == term {
					score++
				}
			}
		}
		if score > 0 {
			hits = append(hits, domain.ScoredStore{Store: c.withReviewsLocked(store), Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (c *Catalog) Nearby(_ context.Context, query application.NearbyQuery) ([]domain.NearbyStore, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}

	var hits []domain.NearbyStore
	for _, store := range c.stores {
		d := haversine(query.Longitude, query.Latitude, store.Location.Longitude, store.Location.Latitude)
		if query.MaxDistance > 0 && d > query.MaxDistance {
			continue
		}
		withReviews := c.withReviewsLocked(store)
		hits = append(hits, domain.NearbyStore{
			ID:          store.ID,
			Slug:        store.Slug,
			Name:        store.Name,
			Description: store.Description,
			Location:    store.Location,
			Photo:       store.Photo,
			Distance:    d,
			Reviews:     withReviews.Reviews,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if query.Limit > 0 && len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}
	return hits, nil
}

func (c *Catalog) TagCounts(context.Context) ([]domain.TagCount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	counts := make(map[string]int)
	for _, store := range c.stores {
		for _, tag := range store.Tags {
			counts[tag]++
		}
	}
	result := make([]domain.TagCount, 0, len(counts))
	for tag, n := range counts {
		result = append(result, domain.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	return result, nil
}

func (c *Catalog) TopRated(_ context.Context, minReviews, limit int) ([]domain.RankedStore, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	var ranked []domain.RankedStore
	for _, store := range c.stores {
		withReviews := c.withReviewsLocked(store)
		n := len(withReviews.Reviews)
		if n < minReviews || n == 0 {
			continue
		}
		sum := 0.0
		for _, r := range withReviews.Reviews {
			sum += r.Rating
		}
		ranked = append(ranked, domain.RankedStore{
			Store:         withReviews,
			AverageRating: sum / float64(n),
			ReviewCount:   n,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AverageRating != ranked[j].AverageRating {
			return ranked[i].AverageRating > ranked[j].AverageRating
		}
		return ranked[i].ID < ranked[j].ID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Users exposes the user half of the catalog state as an application.UserRepository.
type Users struct {
	c *Catalog
}

func (c *Catalog) Users() *Users {
	return &Users{c: c}
}

func (u *Users) FindByID(_ context.Context, id string) (*domain.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	c := u.c
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	user, ok := c.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	user.Hearts = append([]string(nil), user.Hearts...)
	return &user, nil
}

// ToggleHeart upserts the user the same way the database adapter does.
func (u *Users) ToggleHeart(_ context.Context, userID, storeID string) ([]string, error) {
	if err := validateID(userID); err != nil {
		return nil, err
	}
	if err := validateID(storeID); err != nil {
		return nil, err
	}
	c := u.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	user := c.users[userID]
	user.ID = userID
	next := make([]string, 0, len(user.Hearts)+1)
	removed := false
	for _, id := range user.Hearts {
		if id == storeID {
			removed = true
			continue
		}
		next = append(next, id)
	}
	if !removed {
		next = append(next, storeID)
	}
	user.Hearts = next
	c.users[userID] = user
	return append([]string(nil), next...), nil
}

func (c *Catalog) slugTakenLocked(slug, selfID string) bool {
	for id, other := range c.stores {
		if id != selfID && strings.EqualFold(other.Slug, slug) {
			return true
		}
	}
	return false
}

// collectLocked returns matching stores newest first with reviews attached.
func (c *Catalog) collectLocked(match func(domain.Store) bool) []domain.Store {
	result := make([]domain.Store, 0)
	for _, store := range c.stores {
		if match(store) {
			result = append(result, c.withReviewsLocked(store))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (c *Catalog) withReviewsLocked(store domain.Store) domain.Store {
	out := cloneStore(store)
	out.Reviews = []domain.Review{}
	for _, r := range c.reviews {
		if r.StoreID == store.ID {
			out.Reviews = append(out.Reviews, r)
		}
	}
	sort.SliceStable(out.Reviews, func(i, j int) bool {
		return out.Reviews[i].CreatedAt.After(out.Reviews[j].CreatedAt)
	})
	return out
}

func cloneStore(s domain.Store) domain.Store {
	s.Tags = domain.TagList(append([]string(nil), s.Tags...))
	if len(s.Tags) == 0 {
		s.Tags = nil
	}
	s.Reviews = nil
	s.Author = nil
	return s
}

func validateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return domain.Validationf("invalid id %q", id)
	}
	return nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
}

func haversine(lng1, lat1, lng2, lat2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(math.Min(1, a)))
}
