package domain

import (
	"math"
	"strings"
)

// PointType is the only GeoJSON geometry stores are indexed by.
const PointType = "Point"

// Location is a GeoJSON point plus the human readable address it was geocoded from.
type Location struct {
	Type      string
	Longitude float64
	Latitude  float64
	Address   string
}

func NewLocation(longitude, latitude float64, address string) (Location, error) {
	if err := ValidateCoordinates(longitude, latitude); err != nil {
		return Location{}, err
	}
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return Location{}, Validationf("you must supply an address")
	}
	return Location{
		Type:      PointType,
		Longitude: longitude,
		Latitude:  latitude,
		Address:   trimmed,
	}, nil
}

// Coordinates returns the GeoJSON ordering: longitude first.
func (l Location) Coordinates() []float64 {
	return []float64{l.Longitude, l.Latitude}
}

// ValidateCoordinates rejects NaN, infinities and values outside the WGS84 ranges.
func ValidateCoordinates(longitude, latitude float64) error {
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) || longitude < -180 || longitude > 180 {
		return Validationf("longitude must be between -180 and 180")
	}
	if math.IsNaN(latitude) || math.IsInf(latitude, 0) || latitude < -90 || latitude > 90 {
		return Validationf("latitude must be between -90 and 90")
	}
	return nil
}

func NewStoreName(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", Validationf("name is required")
	}
	return trimmed, nil
}

type TagList []string

// NewTagList trims, drops blanks and de-duplicates while keeping first-seen order.
func NewTagList(values []string) TagList {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{})
	for _, raw := range values {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	if len(result) == 0 {
		return nil
	}
	return TagList(result)
}

func (l TagList) Contains(tag string) bool {
	for _, v := range l {
		if v == tag {
			return true
		}
	}
	return false
}

func (l TagList) Strings() []string {
	return append([]string{}, l...)
}
