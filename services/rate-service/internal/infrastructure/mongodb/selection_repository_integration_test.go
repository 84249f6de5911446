//go:build integration

package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"

	sharedTesting "github.com/wms-platform/courier-rates/shared/pkg/testing"
)

type SelectionRepositoryIntegrationTestSuite struct {
	suite.Suite
	container *sharedTesting.MongoDBContainer
	client    *mongo.Client
	db        *mongo.Database
	repo      *SelectionRepository
	ctx       context.Context
}

func (s *SelectionRepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := sharedTesting.NewMongoDBContainer(s.ctx)
	s.Require().NoError(err)
	s.container = container

	client, err := container.GetClient(s.ctx)
	s.Require().NoError(err)
	s.client = client

	s.db = client.Database("courier_rates_test")
	s.repo = NewSelectionRepository(s.db, nil, nil)
}

func (s *SelectionRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
	if s.container != nil {
		s.Require().NoError(s.container.Close(s.ctx))
	}
}

func (s *SelectionRepositoryIntegrationTestSuite) TearDownTest() {
	_, _ = s.db.Collection(SelectionsCollection).DeleteMany(s.ctx, map[string]any{})
}

func (s *SelectionRepositoryIntegrationTestSuite) TestSaveIsIdempotentPerSession() {
	selection := createTestSelection()

	s.Require().NoError(s.repo.HandleSelection(s.ctx, selection))

	selection.Charges.Total = 170
	s.Require().NoError(s.repo.HandleSelection(s.ctx, selection))

	count, err := s.db.Collection(SelectionsCollection).CountDocuments(s.ctx, map[string]any{"sessionId": selection.SessionID})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	stored, err := s.repo.FindBySessionID(s.ctx, selection.SessionID)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(170.0, stored.Charges.Total)
	s.Equal(selection.Query, stored.Query)
	s.True(selection.SubmittedAt.Equal(stored.SubmittedAt))
}

func (s *SelectionRepositoryIntegrationTestSuite) TestFindUnknownSession() {
	stored, err := s.repo.FindBySessionID(s.ctx, "RS-missing")

	s.Require().NoError(err)
	s.Nil(stored)
}

func TestSelectionRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SelectionRepositoryIntegrationTestSuite))
}
