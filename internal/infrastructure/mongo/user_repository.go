package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// UserRepository reads users and maintains their hearts.
type UserRepository struct {
	collection *mongo.Collection
}

var _ application.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(UsersCollection)}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc UserDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, translateError("find user", err)
	}
	user := mapUserDocument(doc)
	return &user, nil
}

// ToggleHeart flips storeID in the user's hearts and returns the new set. Users the identity
// provider has not synced yet are created with just their hearts.
func (r *UserRepository) ToggleHeart(ctx context.Context, userID, storeID string) ([]string, error) {
	userObjID, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	storeObjID, err := parseID(storeID)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var updated UserDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userObjID}, toggleHeartUpdate(storeObjID), opts).Decode(&updated); err != nil {
		return nil, translateError("toggle heart", err)
	}
	return hexIDs(updated.Hearts), nil
}
