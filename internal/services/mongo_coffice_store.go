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

type MongoCofficeStore struct {
	client      *mongo.Client
	db          *mongo.Database
	cofficesCol *mongo.Collection
}

func NewMongoCofficeStore(ctx context.Context, mongoURI, dbName string) (*MongoCofficeStore, error) {
	// Atlas occasionally fails TLS negotiation in some environments unless we force TLS 1.2.
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
	col := db.Collection("coffices")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "latitude", Value: 1}, {Key: "longitude", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "vicinity", Value: "text"}}},
	})

	log.Printf("MongoDB connected (coffices): db=%s", dbName)
	return &MongoCofficeStore{
		client:      client,
		db:          db,
		cofficesCol: col,
	}, nil
}

func (s *MongoCofficeStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoCofficeStore) GetByPlaceID(ctx context.Context, placeID string) (*models.Coffice, error) {
	var coffice models.Coffice
	if err := s.cofficesCol.FindOne(ctx, bson.M{"_id": placeID}).Decode(&coffice); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrCofficeNotFound
		}
		return nil, err
	}
	if coffice.AverageRatings == nil {
		coffice.AverageRatings = map[string]float64{}
	}
	return &coffice, nil
}

func (s *MongoCofficeStore) Insert(ctx context.Context, coffice *models.Coffice) error {
	// Creation races resolve last-write-wins, matching the client-side
	// re-check behavior this replaces.
	_, err := s.cofficesCol.ReplaceOne(
		ctx,
		bson.M{"_id": coffice.PlaceID},
		coffice,
		options.Replace().SetUpsert(true),
	)
	return err
}

// UpdateAggregate writes only the rating fields; unrelated metadata on the
// record is left alone.
func (s *MongoCofficeStore) UpdateAggregate(ctx context.Context, placeID string, averages map[string]float64, total int, updatedAt time.Time) error {
	res, err := s.cofficesCol.UpdateOne(ctx, bson.M{"_id": placeID}, bson.M{
		"$set": bson.M{
			"average_ratings": averages,
			"total_ratings":   total,
			"updated_at":      updatedAt,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCofficeNotFound
	}
	return nil
}

func (s *MongoCofficeStore) Touch(ctx context.Context, placeID string, updatedAt time.Time) error {
	res, err := s.cofficesCol.UpdateOne(ctx, bson.M{"_id": placeID}, bson.M{
		"$set": bson.M{"updated_at": updatedAt},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCofficeNotFound
	}
	return nil
}

func (s *MongoCofficeStore) ListByBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64, limit int) ([]*models.Coffice, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 500 {
		limit = 500
	}

	filter := bson.M{
		"latitude":  bson.M{"$gte": minLat, "$lte": maxLat},
		"longitude": bson.M{"$gte": minLng, "$lte": maxLng},
	}

	cur, err := s.cofficesCol.Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Coffice, 0)
	for cur.Next(ctx) {
		var c models.Coffice
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		if c.AverageRatings == nil {
			c.AverageRatings = map[string]float64{}
		}
		out = append(out, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BulkReplace upserts every record in a single ordered bulk write. All-or-
// nothing for the batch; the backfill job treats a failure here as fatal.
func (s *MongoCofficeStore) BulkReplace(ctx context.Context, coffices []*models.Coffice) error {
	if len(coffices) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(coffices))
	for _, c := range coffices {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": c.PlaceID}).
			SetReplacement(c).
			SetUpsert(true))
	}

	_, err := s.cofficesCol.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	return err
}
