package services

import (
	"context"
	"crypto/tls"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coffices/backend/internal/models"
)

// RatingStore is the persistence surface for individual rating documents,
// keyed "{userID}_{placeID}".
type RatingStore interface {
	Get(ctx context.Context, userID, placeID string) (*models.Rating, error)
	Put(ctx context.Context, rating *models.Rating) error
	ListAll(ctx context.Context) ([]*models.Rating, error)
}

type MongoRatingService struct {
	client     *mongo.Client
	db         *mongo.Database
	ratingsCol *mongo.Collection
}

func NewMongoRatingService(ctx context.Context, mongoURI, dbName string) (*MongoRatingService, error) {
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
	col := db.Collection("ratings")

	// Best-effort indexes. The composite _id already guarantees one rating
	// per user per place; these cover the grouped scans.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "place_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})

	log.Printf("MongoDB connected (ratings): db=%s", dbName)
	return &MongoRatingService{
		client:     client,
		db:         db,
		ratingsCol: col,
	}, nil
}

func (s *MongoRatingService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoRatingService) Get(ctx context.Context, userID, placeID string) (*models.Rating, error) {
	var rating models.Rating
	err := s.ratingsCol.FindOne(ctx, bson.M{"_id": models.RatingID(userID, placeID)}).Decode(&rating)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// Put creates or overwrites the caller's rating for a place.
func (s *MongoRatingService) Put(ctx context.Context, rating *models.Rating) error {
	if rating.ID == "" {
		rating.ID = models.RatingID(rating.UserID, rating.PlaceID)
	}
	_, err := s.ratingsCol.ReplaceOne(
		ctx,
		bson.M{"_id": rating.ID},
		rating,
		options.Replace().SetUpsert(true),
	)
	return err
}

// ListAll streams every rating document. Only the backfill job calls this;
// history sizes are modest enough to hold in memory.
func (s *MongoRatingService) ListAll(ctx context.Context) ([]*models.Rating, error) {
	cur, err := s.ratingsCol.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Rating, 0)
	for cur.Next(ctx) {
		var r models.Rating
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
