// Package mongo provides a MongoDB-backed catalog source.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
)

var (
	_ ports.CatalogSource = (*Source)(nil)
	_ ports.CatalogWriter = (*Source)(nil)
)

// trackDocument is the stored shape of one catalog track.
type trackDocument struct {
	ID         string             `bson:"_id"`
	Position   int                `bson:"position"`
	Title      string             `bson:"title"`
	Artist     string             `bson:"artist"`
	Album      string             `bson:"album,omitempty"`
	URI        string             `bson:"uri,omitempty"`
	Popularity int                `bson:"popularity"`
	Emotions   map[string]float64 `bson:"emotions"`
}

type Source struct {
	conn       *mongo.Client
	log        *zap.Logger
	dbname     string
	collection string
}

// NewSource connects to url. The collection is read on every LoadTracks.
func NewSource(ctx context.Context, log *zap.Logger, url, dbname, collection string) (*Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to connect: %w", err)
	}

	return &Source{
		conn:       conn,
		log:        log,
		dbname:     dbname,
		collection: collection,
	}, nil
}

func (s *Source) tracksCollection() *mongo.Collection {
	return s.conn.Database(s.dbname).Collection(s.collection)
}

// Ping verifies the connection.
func (s *Source) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx, nil)
}

func (s *Source) Close(ctx context.Context) error {
	return s.conn.Disconnect(ctx)
}

// LoadTracks returns every stored track ordered by position, then id. A
// document that fails to decode fails the whole load.
func (s *Source) LoadTracks(ctx context.Context) ([]domain.Track, error) {
	cur, err := s.tracksCollection().Find(ctx, bson.M{}, findOptions())
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to query tracks: %w", err)
	}
	defer cur.Close(ctx)

	tracks := make([]domain.Track, 0)
	for cur.Next(ctx) {
		var doc trackDocument
		if err := cur.Decode(&doc); err != nil {
			s.log.Error("failed to decode track document", zap.Error(err))
			return nil, fmt.Errorf("mongo: failed to decode track: %w", err)
		}
		tracks = append(tracks, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo: failed to iterate tracks: %w", err)
	}

	return tracks, nil
}

// UpsertTracks replaces each track document by id, appending new tracks after
// the stored ones.
func (s *Source) UpsertTracks(ctx context.Context, tracks []domain.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	next, err := s.nextPosition(ctx)
	if err != nil {
		return err
	}

	models := make([]mongo.WriteModel, 0, len(tracks))
	for i, t := range tracks {
		doc := fromDomain(t, next+i)
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"title":      doc.Title,
					"artist":     doc.Artist,
					"album":      doc.Album,
					"uri":        doc.URI,
					"popularity": doc.Popularity,
					"emotions":   doc.Emotions,
				},
				"$setOnInsert": bson.M{"position": doc.Position},
			}).
			SetUpsert(true))
	}

	res, err := s.tracksCollection().BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("mongo: failed to upsert tracks: %w", err)
	}
	s.log.Info("catalog tracks upserted",
		zap.Int64("inserted", res.UpsertedCount),
		zap.Int64("updated", res.ModifiedCount),
	)
	return nil
}

func (s *Source) nextPosition(ctx context.Context) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}}).SetProjection(bson.M{"position": 1})
	var last trackDocument
	err := s.tracksCollection().FindOne(ctx, bson.M{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("mongo: failed to read track positions: %w", err)
	}
	return last.Position + 1, nil
}

func findOptions() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "position", Value: 1},
		{Key: "_id", Value: 1},
	})
}

func (d trackDocument) toDomain() domain.Track {
	profile := make(domain.EmotionProfile, len(d.Emotions))
	for label, weight := range d.Emotions {
		profile[domain.EmotionLabel(label)] = weight
	}
	return domain.Track{
		ID:         d.ID,
		Title:      d.Title,
		Artist:     d.Artist,
		Album:      d.Album,
		URI:        d.URI,
		Popularity: d.Popularity,
		Profile:    profile,
	}
}

func fromDomain(t domain.Track, position int) trackDocument {
	emotions := make(map[string]float64, len(t.Profile))
	for label, weight := range t.Profile {
		emotions[string(label)] = weight
	}
	return trackDocument{
		ID:         t.ID,
		Position:   position,
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		URI:        t.URI,
		Popularity: t.Popularity,
		Emotions:   emotions,
	}
}
