package models

import "time"

// Coffice is the aggregate record for a coffee shop, keyed by the upstream
// place identifier. Running averages cover whatever ratings have been folded
// into it so far.
type Coffice struct {
	PlaceID        string             `json:"place_id" bson:"_id"`
	Name           string             `json:"name" bson:"name"`
	Vicinity       string             `json:"vicinity" bson:"vicinity,omitempty"`
	Latitude       float64            `json:"latitude" bson:"latitude"`
	Longitude      float64            `json:"longitude" bson:"longitude"`
	PhotoURL       string             `json:"photo_url" bson:"photo_url,omitempty"`
	TotalRatings   int                `json:"total_ratings" bson:"total_ratings"`
	AverageRatings map[string]float64 `json:"average_ratings" bson:"average_ratings"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`

	// DistanceMeters is filled in at read time when the caller supplied a
	// reference coordinate. Never persisted.
	DistanceMeters *float64 `json:"distance_meters,omitempty" bson:"-"`
}

// PlaceMetadata is the slice of upstream place data needed to create or
// refresh a Coffice record.
type PlaceMetadata struct {
	PlaceID        string  `json:"place_id"`
	Name           string  `json:"name"`
	Vicinity       string  `json:"vicinity"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	PhotoReference string  `json:"photo_reference,omitempty"`
}
