package domain

import "time"

// Review is owned by the review service; the catalog only reads it for joins and ranking.
type Review struct {
	ID        string
	StoreID   string
	AuthorID  string
	Rating    float64
	Text      string
	CreatedAt time.Time
}

// User is owned by the identity provider. The catalog reads it to resolve store authors and
// mutates only Hearts.
type User struct {
	ID     string
	Name   string
	Email  string
	Hearts []string
}

// Hearted reports whether storeID is in the user's hearts.
func (u User) Hearted(storeID string) bool {
	for _, id := range u.Hearts {
		if id == storeID {
			return true
		}
	}
	return false
}
