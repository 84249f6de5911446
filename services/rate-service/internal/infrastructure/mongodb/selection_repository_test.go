package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

type recordedOperation struct {
	operation string
	success   bool
}

type fakeRecorder struct {
	ops []recordedOperation
}

func (f *fakeRecorder) RecordMongoDBOperation(collection, operation string, success bool, _ time.Duration) {
	f.ops = append(f.ops, recordedOperation{operation: operation, success: success})
}

func createTestSelection() domain.SubmittedSelection {
	return domain.SubmittedSelection{
		CourierSelection: domain.CourierSelection{
			Courier: "delhivery",
			Mode:    "Surface - Standard",
			Charges: domain.FeeBreakdown{ShippingCharge: 110, CODCharge: 25, GST: 24.3, Total: 159.3},
		},
		SessionID:   "RS-001",
		Surface:     domain.SurfaceSeller,
		Query:       domain.RateQuery{OriginPincode: "110001", DestinationPincode: "560001", WeightKg: 2, IsCOD: true},
		SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewSelectionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewSelectionRepository(mt.DB, nil, nil)
		require.NotNil(t, repo)
	})
}

func TestSelectionRepository_Save(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts", func(mt *mtest.T) {
		recorder := &fakeRecorder{}
		repo := &SelectionRepository{collection: mt.Coll, recorder: recorder}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		err := repo.Save(context.Background(), createTestSelection())

		require.NoError(t, err)
		require.Len(t, recorder.ops, 1)
		assert.Equal(t, recordedOperation{operation: "upsert", success: true}, recorder.ops[0])
	})

	mt.Run("write error", func(mt *mtest.T) {
		recorder := &fakeRecorder{}
		repo := &SelectionRepository{collection: mt.Coll, recorder: recorder}

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		err := repo.HandleSelection(context.Background(), createTestSelection())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save courier selection")
		require.Len(t, recorder.ops, 1)
		assert.False(t, recorder.ops[0].success)
	})
}

func TestSelectionRepository_FindBySessionID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := &SelectionRepository{collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "sessionId", Value: "RS-001"},
			{Key: "surface", Value: "seller"},
			{Key: "courier", Value: "delhivery"},
			{Key: "mode", Value: "Surface - Standard"},
			{Key: "charges", Value: bson.D{
				{Key: "shippingCharge", Value: 110.0},
				{Key: "codCharge", Value: 25.0},
				{Key: "gst", Value: 24.3},
				{Key: "total", Value: 159.3},
			}},
			{Key: "query", Value: bson.D{
				{Key: "originPincode", Value: "110001"},
				{Key: "destinationPincode", Value: "560001"},
				{Key: "weightKg", Value: 2.0},
				{Key: "isCOD", Value: true},
			}},
		}))

		selection, err := repo.FindBySessionID(context.Background(), "RS-001")

		require.NoError(t, err)
		require.NotNil(t, selection)
		assert.Equal(t, "delhivery", selection.Courier)
		assert.Equal(t, domain.SurfaceSeller, selection.Surface)
		assert.Equal(t, 159.3, selection.Charges.Total)
		assert.Equal(t, "560001", selection.Query.DestinationPincode)
		assert.True(t, selection.Query.IsCOD)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := &SelectionRepository{collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		selection, err := repo.FindBySessionID(context.Background(), "RS-404")

		require.NoError(t, err)
		assert.Nil(t, selection)
	})
}
