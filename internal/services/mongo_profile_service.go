package services

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coffices/backend/internal/models"
)

// ProfileStore is the subset of profile operations the submission flow needs.
type ProfileStore interface {
	IncrementRatedCount(ctx context.Context, userID string) error
}

type MongoProfileService struct {
	client      *mongo.Client
	db          *mongo.Database
	profilesCol *mongo.Collection
}

func NewMongoProfileService(ctx context.Context, mongoURI, dbName string) (*MongoProfileService, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("profiles")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	log.Printf("MongoDB connected (profiles): db=%s", dbName)
	return &MongoProfileService{
		client:      client,
		db:          db,
		profilesCol: col,
	}, nil
}

func (s *MongoProfileService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoProfileService) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var prof models.Profile
	if err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &prof, nil
}

// GetOrCreate returns the user's profile, creating a bare one on first
// authenticated visit.
func (s *MongoProfileService) GetOrCreate(ctx context.Context, userID string, email string) (*models.Profile, error) {
	now := time.Now()

	var prof models.Profile
	err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof)
	if err == nil {
		if email != "" && prof.Email == "" {
			_, _ = s.profilesCol.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
				"$set": bson.M{"email": email, "updated_at": now},
			})
			prof.Email = email
			prof.UpdatedAt = now
		}
		return &prof, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	prof = models.Profile{
		UserID:    userID,
		Email:     email,
		Role:      models.RoleRegular,
		UpdatedAt: now,
	}
	_, err = s.profilesCol.InsertOne(ctx, prof)
	if err != nil {
		// If a race created it, fetch again.
		var retry models.Profile
		if err2 := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&retry); err2 == nil {
			return &retry, nil
		}
		return nil, err
	}
	return &prof, nil
}

func (s *MongoProfileService) Upsert(ctx context.Context, userID string, email string, req *models.UpsertProfileRequest) (*models.Profile, error) {
	now := time.Now()

	set := bson.M{
		"updated_at": now,
	}
	if email != "" {
		set["email"] = email
	}
	if req.DisplayName != nil {
		set["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		set["bio"] = *req.Bio
	}
	if req.Tagline != nil {
		set["tagline"] = *req.Tagline
	}
	if req.Location != nil {
		set["location"] = *req.Location
	}
	if req.PhotoURL != nil {
		set["photo_url"] = *req.PhotoURL
	}
	if req.SocialLinks != nil {
		set["social_links"] = *req.SocialLinks
	}

	setOnInsert := bson.M{
		"user_id": userID,
		"role":    models.RoleRegular,
	}

	_, err := s.profilesCol.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	var prof models.Profile
	if err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof); err != nil {
		return nil, err
	}
	return &prof, nil
}

// IncrementRatedCount bumps the denormalized rating counter. The increment
// happens server-side so concurrent first ratings for different places
// cannot lose an update.
func (s *MongoProfileService) IncrementRatedCount(ctx context.Context, userID string) error {
	now := time.Now()
	_, err := s.profilesCol.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$inc":         bson.M{"rated_coffices_count": 1},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"user_id": userID, "role": models.RoleRegular},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// AddFavorite appends a place identifier to the user's favorites. $addToSet
// keeps the list duplicate-free, so re-favoriting is a no-op.
func (s *MongoProfileService) AddFavorite(ctx context.Context, userID, placeID string) error {
	now := time.Now()
	_, err := s.profilesCol.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$addToSet":    bson.M{"favorites": placeID},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"user_id": userID, "role": models.RoleRegular},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoProfileService) RemoveFavorite(ctx context.Context, userID, placeID string) error {
	now := time.Now()
	res, err := s.profilesCol.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$pull": bson.M{"favorites": placeID},
			"$set":  bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}
