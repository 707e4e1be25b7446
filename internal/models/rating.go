package models

import (
	"fmt"
	"time"
)

// Dimensions is the fixed set of rated axes.
var Dimensions = []string{"wifi", "power", "noise", "coffee"}

// RatingScores maps a dimension name to an integer score in [1,5]. A missing
// key means the dimension was not rated; the aggregation fold leaves that
// dimension's running mean untouched.
type RatingScores map[string]int

// Rating is a single user's submission for a place. At most one exists per
// (user, place); resubmission overwrites.
type Rating struct {
	ID        string       `json:"id" bson:"_id"` // "{userID}_{placeID}"
	UserID    string       `json:"user_id" bson:"user_id"`
	PlaceID   string       `json:"place_id" bson:"place_id"`
	Scores    RatingScores `json:"scores" bson:"scores"`
	Comment   string       `json:"comment,omitempty" bson:"comment,omitempty"`
	PlaceName string       `json:"place_name,omitempty" bson:"place_name,omitempty"`
	UserEmail string       `json:"user_email,omitempty" bson:"user_email,omitempty"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
}

// RatingID builds the composite document key.
func RatingID(userID, placeID string) string {
	return fmt.Sprintf("%s_%s", userID, placeID)
}

// SubmitRatingRequest is the payload for rating a coffice. The UI always
// sends all four dimensions; partial input is a validation error here even
// though the aggregation fold tolerates it.
type SubmitRatingRequest struct {
	Place   PlaceMetadata `json:"place"`
	Wifi    int           `json:"wifi"`
	Power   int           `json:"power"`
	Noise   int           `json:"noise"`
	Coffee  int           `json:"coffee"`
	Comment string        `json:"comment"`
}

func (r *SubmitRatingRequest) Validate() map[string]string {
	errors := make(map[string]string)

	for dim, v := range map[string]int{
		"wifi":   r.Wifi,
		"power":  r.Power,
		"noise":  r.Noise,
		"coffee": r.Coffee,
	} {
		if v < 1 || v > 5 {
			errors[dim] = "Score must be between 1 and 5"
		}
	}
	if r.Place.PlaceID == "" {
		errors["place"] = "Place is required"
	}

	return errors
}

// Scores converts the request into the stored score map.
func (r *SubmitRatingRequest) Scores() RatingScores {
	return RatingScores{
		"wifi":   r.Wifi,
		"power":  r.Power,
		"noise":  r.Noise,
		"coffee": r.Coffee,
	}
}
