package repositories

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"melostore/internal/models"
	"melostore/internal/similarity"
	"melostore/internal/songtitle"
)

// errStopIteration ends a scan early once a perfect match is found.
var errStopIteration = fmt.Errorf("stop iteration")

// mongoMusicRepository implements MusicRepository on a MongoDB collection.
type mongoMusicRepository struct {
	collection *mongo.Collection
}

// NewMongoMusicRepository creates the repository and its indexes.
func NewMongoMusicRepository(ctx context.Context, db *mongo.Database) (MusicRepository, error) {
	r := &mongoMusicRepository{collection: db.Collection("music")}

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "file_hash", Value: 1}}},
		{Keys: bson.D{{Key: "accessed_at", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create music indexes: %w", err)
	}
	return r, nil
}

func (r *mongoMusicRepository) Save(ctx context.Context, doc *models.MusicDocument) error {
	doc.UpdatedAt = time.Now()
	if doc.CompTitle == "" {
		doc.CompTitle = songtitle.Comparison(doc.Title)
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"title": doc.Title}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save music document: %w", err)
	}
	return nil
}

func (r *mongoMusicRepository) FindByTitle(ctx context.Context, title string, minSimilarity float64) (*models.MusicDocument, error) {
	title = songtitle.Normalize(title)
	if title == "" {
		return nil, nil
	}

	var exact models.MusicDocument
	err := r.collection.FindOne(ctx, bson.M{"title": title}).Decode(&exact)
	if err == nil {
		return &exact, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to find music document by title: %w", err)
	}

	// full scan scoring every document against the wanted title
	var best *models.MusicDocument
	bestScore := 0.0
	err = r.Iterate(ctx, func(doc *models.MusicDocument) error {
		score := similarity.Song(doc.Title, title, similarity.SongOptions{
			Normalized: true,
			Min:        minSimilarity,
		})

		switch {
		case score == 1:
			best, bestScore = doc, score
			return errStopIteration
		case best == nil || score > bestScore:
			best, bestScore = doc, score
		case score == bestScore && rand.Float64() > 0.5:
			best, bestScore = doc, score
		}
		return nil
	})
	if err != nil && err != errStopIteration {
		return nil, err
	}

	if best == nil || bestScore < minSimilarity {
		return nil, nil
	}
	return best, nil
}

func (r *mongoMusicRepository) FindByFileHash(ctx context.Context, hash string) (*models.MusicDocument, error) {
	var doc models.MusicDocument
	err := r.collection.FindOne(ctx, bson.M{"file_hash": hash}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find music document by file hash: %w", err)
	}
	return &doc, nil
}

func (r *mongoMusicRepository) Iterate(ctx context.Context, fn func(*models.MusicDocument) error) error {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to open music cursor: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc models.MusicDocument
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("failed to decode music document: %w", err)
		}
		if err := fn(&doc); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (r *mongoMusicRepository) DeleteByTitle(ctx context.Context, title string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"title": title})
	if err != nil {
		return fmt.Errorf("failed to delete music document by title: %w", err)
	}
	return nil
}

func (r *mongoMusicRepository) DeleteByFileHash(ctx context.Context, hash string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"file_hash": hash})
	if err != nil {
		return fmt.Errorf("failed to delete music documents by file hash: %w", err)
	}
	return nil
}

func (r *mongoMusicRepository) Touch(ctx context.Context, title string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"title": title},
		bson.M{"$set": bson.M{"accessed_at": at}})
	if err != nil {
		return fmt.Errorf("failed to touch music document: %w", err)
	}
	return nil
}

func (r *mongoMusicRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count music documents: %w", err)
	}
	return count, nil
}
