package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// Collection names. The index migrations refer to the same names.
const (
	StoresCollection  = "stores"
	ReviewsCollection = "reviews"
	UsersCollection   = "users"
)

// LocationDocument is a GeoJSON point with the address it was entered as.
type LocationDocument struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
	Address     string    `bson:"address"`
}

// StoreDocument は MongoDB 上での店舗スキーマ。reviews は保存せず、読み出し時に結合する。
type StoreDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description,omitempty"`
	Tags        []string           `bson:"tags,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	Location    LocationDocument   `bson:"location"`
	Photo       string             `bson:"photo,omitempty"`
	AuthorID    primitive.ObjectID `bson:"authorId"`
}

type ReviewDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	StoreID   primitive.ObjectID `bson:"storeId"`
	AuthorID  primitive.ObjectID `bson:"authorId"`
	Rating    float64            `bson:"rating"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type UserDocument struct {
	ID     primitive.ObjectID   `bson:"_id"`
	Name   string               `bson:"name,omitempty"`
	Email  string               `bson:"email,omitempty"`
	Hearts []primitive.ObjectID `bson:"hearts,omitempty"`
}

// scoredStoreDocument is a $text hit with its textScore projected alongside.
type scoredStoreDocument struct {
	StoreDocument `bson:",inline"`
	Score         float64 `bson:"score"`
}

type nearbyStoreDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Slug        string             `bson:"slug"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Location    LocationDocument   `bson:"location"`
	Photo       string             `bson:"photo"`
	Distance    float64            `bson:"distance"`
}

type rankedStoreDocument struct {
	StoreDocument `bson:",inline"`
	Reviews       []ReviewDocument `bson:"reviews"`
	AverageRating float64          `bson:"averageRating"`
	ReviewCount   int              `bson:"reviewCount"`
}

type tagCountDocument struct {
	Tag   string `bson:"_id"`
	Count int    `bson:"count"`
}

func newStoreDocument(store *domain.Store) (StoreDocument, error) {
	id := primitive.NewObjectID()
	if store.ID != "" {
		parsed, err := parseID(store.ID)
		if err != nil {
			return StoreDocument{}, err
		}
		id = parsed
	}
	authorID, err := parseID(store.AuthorID)
	if err != nil {
		return StoreDocument{}, err
	}
	return StoreDocument{
		ID:          id,
		Name:        store.Name,
		Slug:        store.Slug,
		Description: store.Description,
		Tags:        store.Tags.Strings(),
		CreatedAt:   store.CreatedAt.UTC(),
		Location: LocationDocument{
			Type:        domain.PointType,
			Coordinates: store.Location.Coordinates(),
			Address:     store.Location.Address,
		},
		Photo:    store.Photo,
		AuthorID: authorID,
	}, nil
}

func mapStoreDocument(doc StoreDocument) domain.Store {
	return domain.Store{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Slug:        doc.Slug,
		Description: doc.Description,
		Tags:        domain.NewTagList(doc.Tags),
		CreatedAt:   doc.CreatedAt,
		Location:    mapLocationDocument(doc.Location),
		Photo:       doc.Photo,
		AuthorID:    doc.AuthorID.Hex(),
		Reviews:     []domain.Review{},
	}
}

func mapLocationDocument(doc LocationDocument) domain.Location {
	loc := domain.Location{Type: doc.Type, Address: doc.Address}
	if len(doc.Coordinates) == 2 {
		loc.Longitude = doc.Coordinates[0]
		loc.Latitude = doc.Coordinates[1]
	}
	return loc
}

func mapReviewDocument(doc ReviewDocument) domain.Review {
	return domain.Review{
		ID:        doc.ID.Hex(),
		StoreID:   doc.StoreID.Hex(),
		AuthorID:  doc.AuthorID.Hex(),
		Rating:    doc.Rating,
		Text:      doc.Text,
		CreatedAt: doc.CreatedAt,
	}
}

func mapUserDocument(doc UserDocument) domain.User {
	return domain.User{
		ID:     doc.ID.Hex(),
		Name:   doc.Name,
		Email:  doc.Email,
		Hearts: hexIDs(doc.Hearts),
	}
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
