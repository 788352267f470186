package domain

import "time"

// Store is a listing in the directory. Reviews and Author are resolved at read time and are
// never persisted on the store document.
type Store struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Tags        TagList
	CreatedAt   time.Time
	Location    Location
	Photo       string
	AuthorID    string
	Author      *User
	Reviews     []Review
}

// OwnedBy reports whether userID authored the store.
func (s Store) OwnedBy(userID string) bool {
	return userID != "" && s.AuthorID == userID
}

// ScoredStore is a text search hit.
type ScoredStore struct {
	Store
	Score float64
}

// NearbyStore is the projection returned by proximity queries. Distance is in meters.
type NearbyStore struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Location    Location
	Photo       string
	Distance    float64
	Reviews     []Review
}

// TagCount is one row of the tag frequency list.
type TagCount struct {
	Tag   string
	Count int
}

// RankedStore is a store with its review average, as produced by the top stores ranking.
type RankedStore struct {
	Store
	AverageRating float64
	ReviewCount   int
}
