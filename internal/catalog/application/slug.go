package application

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// SlugGenerator derives a unique URL slug from a display name.
//
// The count-then-insert sequence is not atomic: two stores created concurrently with the same
// name can compute the same slug. The unique slug index rejects the second write with
// domain.ErrConflict.
type SlugGenerator struct {
	repo StoreRepository
}

func NewSlugGenerator(repo StoreRepository) *SlugGenerator {
	return &SlugGenerator{repo: repo}
}

// Compute returns base for the first store with a given name and base-(n+1) once n stores
// already use base or a numbered variant of it.
func (g *SlugGenerator) Compute(ctx context.Context, name, excludeID string) (string, error) {
	base := Slugify(name)
	if base == "" {
		return "", domain.Validationf("name %q does not produce a slug", name)
	}
	n, err := g.repo.CountSlugMatches(ctx, base, excludeID)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, n+1), nil
}

// Slugify lowercases, transliterates to ASCII and joins words with dashes.
func Slugify(name string) string {
	return slug.Make(name)
}
