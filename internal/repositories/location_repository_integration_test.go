//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"shift-tracker/internal/domain/entities"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type LiveLocationRepositoryTestSuite struct {
	suite.Suite
	client *redis.Client
	repo   LiveLocationRepository
	ctx    context.Context
}

func (s *LiveLocationRepositoryTestSuite) SetupTest() {
	s.client = setupTestRedis(s.T())
	s.repo = NewLiveLocationRepository(s.client, zaptest.NewLogger(s.T()))
	s.ctx = context.Background()
}

func (s *LiveLocationRepositoryTestSuite) TearDownTest() {
	s.client.Close()
}

func (s *LiveLocationRepositoryTestSuite) TestUpsertOverwrites() {
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(s.T(), s.repo.Upsert(s.ctx, entities.NewLiveLocation("uid-1", entities.GeoPoint{Latitude: 53.5, Longitude: -113.5}, now)))
	require.NoError(s.T(), s.repo.Upsert(s.ctx, entities.NewLiveLocation("uid-1", entities.GeoPoint{Latitude: 53.6, Longitude: -113.4}, now.Add(time.Minute))))

	got, err := s.repo.Get(s.ctx, "uid-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 53.6, got.Latitude)
	assert.True(s.T(), now.Add(time.Minute).Equal(got.UpdatedAt))

	all, err := s.repo.List(s.ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 1)
}

func (s *LiveLocationRepositoryTestSuite) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, "ghost")
	assert.Equal(s.T(), entities.ErrLocationNotFound, err)
}

func (s *LiveLocationRepositoryTestSuite) TestDeleteOlderThan() {
	now := time.Now().UTC()
	point := entities.GeoPoint{Latitude: 53.5, Longitude: -113.5}

	require.NoError(s.T(), s.repo.Upsert(s.ctx, entities.NewLiveLocation("old", point, now.Add(-2*time.Hour))))
	require.NoError(s.T(), s.repo.Upsert(s.ctx, entities.NewLiveLocation("fresh", point, now)))

	removed, err := s.repo.DeleteOlderThan(s.ctx, now.Add(-time.Hour))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, removed)

	all, err := s.repo.List(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 1)
	assert.Equal(s.T(), "fresh", all[0].DriverID)
}

func TestLiveLocationRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(LiveLocationRepositoryTestSuite))
}
