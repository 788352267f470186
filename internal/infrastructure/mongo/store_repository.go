package mongo

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// StoreRepository implements application.StoreRepository and application.StoreAggregates using
// MongoDB. Reviews live in their own collection and are joined on every read.
type StoreRepository struct {
	stores  *mongo.Collection
	reviews *mongo.Collection
}

var (
	_ application.StoreRepository = (*StoreRepository)(nil)
	_ application.StoreAggregates = (*StoreRepository)(nil)
)

// NewStoreRepository creates a new Mongo-backed store repository.
func NewStoreRepository(db *mongo.Database) *StoreRepository {
	return &StoreRepository{
		stores:  db.Collection(StoresCollection),
		reviews: db.Collection(ReviewsCollection),
	}
}

func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	doc, err := newStoreDocument(store)
	if err != nil {
		return err
	}
	if _, err := r.stores.InsertOne(ctx, doc); err != nil {
		return translateError("insert store", err)
	}
	store.ID = doc.ID.Hex()
	return nil
}

// Update replaces the mutable fields. createdAt and authorId are never rewritten.
func (r *StoreRepository) Update(ctx context.Context, store *domain.Store) error {
	doc, err := newStoreDocument(store)
	if err != nil {
		return err
	}
	if store.ID == "" {
		return domain.Validationf("store id is required")
	}
	set := bson.M{
		"name":        doc.Name,
		"slug":        doc.Slug,
		"description": doc.Description,
		"tags":        doc.Tags,
		"location":    doc.Location,
		"photo":       doc.Photo,
	}
	result, err := r.stores.UpdateByID(ctx, doc.ID, bson.M{"$set": set})
	if err != nil {
		return translateError("update store", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objectID}, nil)
}

// FindBySlug matches case-insensitively, the same way the unique slug index compares.
func (r *StoreRepository) FindBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"slug": slug}, options.FindOne().SetCollation(slugCollation))
}

func (r *StoreRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	objectIDs, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(objectIDs) == 0 {
		return []domain.Store{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, options.Find().SetSort(newestFirst))
}

func (r *StoreRepository) CountSlugMatches(ctx context.Context, base, excludeID string) (int, error) {
	exclude := primitive.NilObjectID
	if excludeID != "" {
		parsed, err := parseID(excludeID)
		if err != nil {
			return 0, err
		}
		exclude = parsed
	}
	n, err := r.stores.CountDocuments(ctx, slugFilter(base, exclude))
	if err != nil {
		return 0, translateError("count slugs", err)
	}
	return int(n), nil
}

func (r *StoreRepository) List(ctx context.Context, skip, limit int) ([]domain.Store, error) {
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	n, err := r.stores.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, translateError("count stores", err)
	}
	return int(n), nil
}

func (r *StoreRepository) FindByTag(ctx context.Context, tag string) ([]domain.Store, error) {
	return r.find(ctx, tagFilter(tag), options.Find().SetSort(newestFirst))
}

func (r *StoreRepository) TextSearch(ctx context.Context, query string, limit int) ([]domain.ScoredStore, error) {
	if query == "" {
		return nil, domain.Validationf("search query is required")
	}
	cursor, err := r.stores.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, textSearchOptions(limit))
	if err != nil {
		return nil, translateError("text search", err)
	}
	defer cursor.Close(ctx)

	docs := make([]scoredStoreDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError("decode text search", err)
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	reviews, err := r.loadReviewMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ScoredStore, 0, len(docs))
	for _, doc := range docs {
		store := mapStoreDocument(doc.StoreDocument)
		store.Reviews = reviewsFor(reviews, doc.ID)
		results = append(results, domain.ScoredStore{Store: store, Score: doc.Score})
	}
	return results, nil
}

func (r *StoreRepository) Nearby(ctx context.Context, query application.NearbyQuery) ([]domain.NearbyStore, error) {
	cursor, err := r.stores.Aggregate(ctx, nearbyPipeline(query))
	if err != nil {
		return nil, translateError("geo near", err)
	}
	defer cursor.Close(ctx)

	docs := make([]nearbyStoreDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError("decode geo near", err)
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	reviews, err := r.loadReviewMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]domain.NearbyStore, 0, len(docs))
	for _, doc := range docs {
		results = append(results, domain.NearbyStore{
			ID:          doc.ID.Hex(),
			Slug:        doc.Slug,
			Name:        doc.Name,
			Description: doc.Description,
			Location:    mapLocationDocument(doc.Location),
			Photo:       doc.Photo,
			Distance:    doc.Distance,
			Reviews:     reviewsFor(reviews, doc.ID),
		})
	}
	return results, nil
}

func (r *StoreRepository) TagCounts(ctx context.Context) ([]domain.TagCount, error) {
	cursor, err := r.stores.Aggregate(ctx, tagCountPipeline())
	if err != nil {
		return nil, translateError("tag counts", err)
	}
	defer cursor.Close(ctx)

	docs := make([]tagCountDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError("decode tag counts", err)
	}
	result := make([]domain.TagCount, 0, len(docs))
	for _, doc := range docs {
		result = append(result, domain.TagCount{Tag: doc.Tag, Count: doc.Count})
	}
	return result, nil
}

func (r *StoreRepository) TopRated(ctx context.Context, minReviews, limit int) ([]domain.RankedStore, error) {
	cursor, err := r.stores.Aggregate(ctx, topRatedPipeline(minReviews, limit))
	if err != nil {
		return nil, translateError("top stores", err)
	}
	defer cursor.Close(ctx)

	docs := make([]rankedStoreDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError("decode top stores", err)
	}
	result := make([]domain.RankedStore, 0, len(docs))
	for _, doc := range docs {
		store := mapStoreDocument(doc.StoreDocument)
		for _, review := range doc.Reviews {
			store.Reviews = append(store.Reviews, mapReviewDocument(review))
		}
		sortReviews(store.Reviews)
		result = append(result, domain.RankedStore{
			Store:         store,
			AverageRating: doc.AverageRating,
			ReviewCount:   doc.ReviewCount,
		})
	}
	return result, nil
}

func (r *StoreRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Store, error) {
	var doc StoreDocument
	if err := r.stores.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, translateError("find store", err)
	}
	reviews, err := r.loadReviewMap(ctx, []primitive.ObjectID{doc.ID})
	if err != nil {
		return nil, err
	}
	store := mapStoreDocument(doc)
	store.Reviews = reviewsFor(reviews, doc.ID)
	return &store, nil
}

func (r *StoreRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Store, error) {
	cursor, err := r.stores.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateError("find stores", err)
	}
	defer cursor.Close(ctx)

	docs := make([]StoreDocument, 0)
	for cursor.Next(ctx) {
		var doc StoreDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translateError("decode store", err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, translateError("find stores", err)
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	reviews, err := r.loadReviewMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	stores := make([]domain.Store, 0, len(docs))
	for _, doc := range docs {
		store := mapStoreDocument(doc)
		store.Reviews = reviewsFor(reviews, doc.ID)
		stores = append(stores, store)
	}
	return stores, nil
}

// loadReviewMap fetches the reviews of every listed store in a single $in query.
func (r *StoreRepository) loadReviewMap(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID][]domain.Review, error) {
	result := make(map[primitive.ObjectID][]domain.Review, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.reviews.Find(ctx, bson.M{"storeId": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, translateError("load reviews", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc ReviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translateError("decode review", err)
		}
		result[doc.StoreID] = append(result[doc.StoreID], mapReviewDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, translateError("load reviews", err)
	}
	return result, nil
}

func reviewsFor(reviews map[primitive.ObjectID][]domain.Review, id primitive.ObjectID) []domain.Review {
	if list, ok := reviews[id]; ok {
		return list
	}
	return []domain.Review{}
}

func sortReviews(reviews []domain.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}
