package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/courier-rates/shared/pkg/logging"
	sharedMongo "github.com/wms-platform/courier-rates/shared/pkg/mongodb"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

// SelectionsCollection holds one audit record per submitted rate session
const SelectionsCollection = "courier_selections"

// SelectionRepository stores submitted courier selections
type SelectionRepository struct {
	collection *mongo.Collection
	recorder   sharedMongo.OperationRecorder
	logger     *logging.Logger
}

// NewSelectionRepository creates the repository and its indexes. recorder and logger may be nil.
func NewSelectionRepository(db *mongo.Database, recorder sharedMongo.OperationRecorder, logger *logging.Logger) *SelectionRepository {
	repo := &SelectionRepository{
		collection: db.Collection(SelectionsCollection),
		recorder:   recorder,
		logger:     logger,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *SelectionRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "courier", Value: 1}, {Key: "submittedAt", Value: -1}}},
		{Keys: bson.D{{Key: "surface", Value: 1}}},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil && r.logger != nil {
		r.logger.WithError(err).Warn("Failed to create indexes", "collection", SelectionsCollection)
	}
}

// Save upserts the record of a session. Saving the same session again overwrites it.
func (r *SelectionRepository) Save(ctx context.Context, selection domain.SubmittedSelection) error {
	return sharedMongo.Instrument(ctx, r.recorder, SelectionsCollection, "upsert", func(ctx context.Context) error {
		filter := bson.M{"sessionId": selection.SessionID}
		update := bson.M{
			"$set":         selection,
			"$setOnInsert": bson.M{"recordedAt": time.Now().UTC()},
		}

		if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("failed to save courier selection: %w", err)
		}
		return nil
	})
}

// FindBySessionID returns the record of a session, or nil when it was never submitted
func (r *SelectionRepository) FindBySessionID(ctx context.Context, sessionID string) (*domain.SubmittedSelection, error) {
	var selection domain.SubmittedSelection
	err := sharedMongo.Instrument(ctx, r.recorder, SelectionsCollection, "find", func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&selection)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find courier selection: %w", err)
	}
	return &selection, nil
}

// HandleSelection records a submitted selection
func (r *SelectionRepository) HandleSelection(ctx context.Context, selection domain.SubmittedSelection) error {
	start := time.Now()
	err := r.Save(ctx, selection)
	if r.logger != nil {
		r.logger.DatabaseQuery(ctx, SelectionsCollection, "upsert", time.Since(start), err == nil)
	}
	return err
}
