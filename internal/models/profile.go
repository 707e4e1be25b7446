package models

import "time"

// Profile roles.
const (
	RoleRegular   = "regular"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Profile is user-editable profile data stored in Mongo and keyed by Firebase UID.
type Profile struct {
	UserID             string            `json:"user_id" bson:"user_id"`
	Email              string            `json:"email" bson:"email,omitempty"`
	DisplayName        string            `json:"display_name" bson:"display_name,omitempty"`
	Bio                string            `json:"bio" bson:"bio,omitempty"`
	Tagline            string            `json:"tagline" bson:"tagline,omitempty"`
	Location           string            `json:"location" bson:"location,omitempty"`
	PhotoURL           string            `json:"photo_url" bson:"photo_url,omitempty"`
	SocialLinks        map[string]string `json:"social_links" bson:"social_links,omitempty"`
	Favorites          []string          `json:"favorites" bson:"favorites,omitempty"`
	RatedCofficesCount int               `json:"rated_coffices_count" bson:"rated_coffices_count"`
	Role               string            `json:"role" bson:"role,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at" bson:"updated_at"`
}

// PublicProfile is safe to share with other authenticated users (no email).
type PublicProfile struct {
	UserID             string            `json:"user_id"`
	DisplayName        string            `json:"display_name"`
	Tagline            string            `json:"tagline"`
	Location           string            `json:"location"`
	PhotoURL           string            `json:"photo_url"`
	SocialLinks        map[string]string `json:"social_links,omitempty"`
	RatedCofficesCount int               `json:"rated_coffices_count"`
}

type UpsertProfileRequest struct {
	DisplayName *string            `json:"display_name"`
	Bio         *string            `json:"bio"`
	Tagline     *string            `json:"tagline"`
	Location    *string            `json:"location"`
	PhotoURL    *string            `json:"photo_url"`
	SocialLinks *map[string]string `json:"social_links"`
}
