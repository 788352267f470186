package common

import (
	"time"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

type LocationView struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address"`
}

type ReviewView struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Rating    float64   `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthorView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type StoreView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description,omitempty"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"createdAt"`
	Location    LocationView `json:"location"`
	Photo       string       `json:"photo,omitempty"`
	PhotoURL    string       `json:"photoUrl,omitempty"`
	AuthorID    string       `json:"authorId"`
	Author      *AuthorView  `json:"author,omitempty"`
	Reviews     []ReviewView `json:"reviews"`
}

func NewLocationView(loc domain.Location) LocationView {
	return LocationView{
		Type:        domain.PointType,
		Coordinates: loc.Coordinates(),
		Address:     loc.Address,
	}
}

func NewReviewViews(reviews []domain.Review) []ReviewView {
	views := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, ReviewView{
			ID:        r.ID,
			AuthorID:  r.AuthorID,
			Rating:    r.Rating,
			Text:      r.Text,
			CreatedAt: r.CreatedAt,
		})
	}
	return views
}

func NewStoreView(store domain.Store) StoreView {
	view := StoreView{
		ID:          store.ID,
		Name:        store.Name,
		Slug:        store.Slug,
		Description: store.Description,
		Tags:        store.Tags.Strings(),
		CreatedAt:   store.CreatedAt,
		Location:    NewLocationView(store.Location),
		Photo:       store.Photo,
		PhotoURL:    PhotoURL(store.Photo),
		AuthorID:    store.AuthorID,
		Reviews:     NewReviewViews(store.Reviews),
	}
	if store.Author != nil {
		view.Author = &AuthorView{ID: store.Author.ID, Name: store.Author.Name}
	}
	return view
}

func NewStoreViews(stores []domain.Store) []StoreView {
	views := make([]StoreView, 0, len(stores))
	for _, s := range stores {
		views = append(views, NewStoreView(s))
	}
	return views
}

// PhotoURL is the public path of a stored photo, or "" when there is none.
func PhotoURL(photo string) string {
	if photo == "" {
		return ""
	}
	return UploadsPath + photo
}
