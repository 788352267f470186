package mongo

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// translateError maps driver errors onto the catalog sentinels.
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s: %v", domain.ErrConflict, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, domain.Validationf("invalid id %q", id)
	}
	return objectID, nil
}

func parseIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := parseID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, objectID)
	}
	return out, nil
}
