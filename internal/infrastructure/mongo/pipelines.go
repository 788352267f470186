package mongo

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// slugCollation makes slug lookups and the unique slug index case-insensitive.
var slugCollation = &options.Collation{Locale: "en", Strength: 2}

// slugFilter matches base and its numbered variants (base-2, base-3, ...).
func slugFilter(base string, exclude primitive.ObjectID) bson.M {
	filter := bson.M{
		"slug": primitive.Regex{
			Pattern: "^(" + regexp.QuoteMeta(base) + ")((-[0-9]*)?)$",
			Options: "i",
		},
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	return filter
}

func tagFilter(tag string) bson.M {
	if tag == "" {
		return bson.M{"tags.0": bson.M{"$exists": true}}
	}
	return bson.M{"tags": tag}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func textSearchOptions(limit int) *options.FindOptions {
	score := bson.M{"$meta": "textScore"}
	return options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}}).
		SetLimit(int64(limit))
}

func nearbyPipeline(q application.NearbyQuery) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near": bson.M{
				"type":        domain.PointType,
				"coordinates": bson.A{q.Longitude, q.Latitude},
			},
			"distanceField": "distance",
			"maxDistance":   q.MaxDistance,
			"spherical":     true,
		}}},
		{{Key: "$limit", Value: q.Limit}},
		{{Key: "$project", Value: bson.M{
			"slug":        1,
			"name":        1,
			"description": 1,
			"location":    1,
			"photo":       1,
			"distance":    1,
		}}},
	}
}

func tagCountPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

// topRatedPipeline keeps stores whose joined reviews array has at least minReviews entries.
func topRatedPipeline(minReviews, limit int) mongo.Pipeline {
	if minReviews < 1 {
		minReviews = 1
	}
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         ReviewsCollection,
			"localField":   "_id",
			"foreignField": "storeId",
			"as":           "reviews",
		}}},
		{{Key: "$match", Value: bson.M{
			fmt.Sprintf("reviews.%d", minReviews-1): bson.M{"$exists": true},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"averageRating": bson.M{"$avg": "$reviews.rating"},
			"reviewCount":   bson.M{"$size": "$reviews"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "averageRating", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// toggleHeartUpdate removes storeID from hearts when present and appends it otherwise, in one
// update so concurrent toggles cannot interleave.
func toggleHeartUpdate(storeID primitive.ObjectID) mongo.Pipeline {
	hearts := bson.M{"$ifNull": bson.A{"$hearts", bson.A{}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"hearts": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{storeID, hearts}},
				bson.M{"$filter": bson.M{
					"input": hearts,
					"cond":  bson.M{"$ne": bson.A{"$$this", storeID}},
				}},
				bson.M{"$concatArrays": bson.A{hearts, bson.A{storeID}}},
			}},
		}}},
	}
}
