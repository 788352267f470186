package public

import (
	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/common"
)

type storeListResponse struct {
	Items      []common.StoreView `json:"items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalCount int                `json:"totalCount"`
	PageCount  int                `json:"pageCount"`
}

type tagCountResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type tagPageResponse struct {
	Tag    string             `json:"tag,omitempty"`
	Tags   []tagCountResponse `json:"tags"`
	Stores []common.StoreView `json:"stores"`
}

type rankedStoreResponse struct {
	common.StoreView
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

type scoredStoreResponse struct {
	common.StoreView
	Score float64 `json:"score"`
}

type nearbyStoreResponse struct {
	ID          string              `json:"id"`
	Slug        string              `json:"slug"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Location    common.LocationView `json:"location"`
	Photo       string              `json:"photo,omitempty"`
	PhotoURL    string              `json:"photoUrl,omitempty"`
	Distance    float64             `json:"distance"`
	Reviews     []common.ReviewView `json:"reviews"`
}

func newStoreListResponse(page *application.StorePage) storeListResponse {
	return storeListResponse{
		Items:      common.NewStoreViews(page.Items),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: page.TotalCount,
		PageCount:  page.PageCount,
	}
}

func newTagCountResponses(counts []domain.TagCount) []tagCountResponse {
	out := make([]tagCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, tagCountResponse{Tag: c.Tag, Count: c.Count})
	}
	return out
}

func newRankedStoreResponses(stores []domain.RankedStore) []rankedStoreResponse {
	out := make([]rankedStoreResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, rankedStoreResponse{
			StoreView:     common.NewStoreView(s.Store),
			AverageRating: s.AverageRating,
			ReviewCount:   s.ReviewCount,
		})
	}
	return out
}

func newScoredStoreResponses(hits []domain.ScoredStore) []scoredStoreResponse {
	out := make([]scoredStoreResponse, 0, len(hits))
	for _, hit := range hits {
		out = append(out, scoredStoreResponse{StoreView: common.NewStoreView(hit.Store), Score: hit.Score})
	}
	return out
}

func newNearbyStoreResponses(hits []domain.NearbyStore) []nearbyStoreResponse {
	out := make([]nearbyStoreResponse, 0, len(hits))
	for _, hit := range hits {
		out = append(out, nearbyStoreResponse{
			ID:          hit.ID,
			Slug:        hit.Slug,
			Name:        hit.Name,
			Description: hit.Description,
			Location:    common.NewLocationView(hit.Location),
			Photo:       hit.Photo,
			PhotoURL:    common.PhotoURL(hit.Photo),
			Distance:    hit.Distance,
			Reviews:     common.NewReviewViews(hit.Reviews),
		})
	}
	return out
}
