//go:build integration

package repositories

import (
	"context"
	"testing"

	"shift-tracker/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DriverRepositoryTestSuite struct {
	suite.Suite
	db   *testDB
	repo DriverRepository
	ctx  context.Context
}

func (s *DriverRepositoryTestSuite) SetupSuite() {
	s.db = setupTestDB(s.T())
	s.repo = NewDriverRepository(s.db.DB, s.db.logger)
	s.ctx = context.Background()
}

func (s *DriverRepositoryTestSuite) TearDownSuite() {
	s.db.teardown(s.T())
}

func (s *DriverRepositoryTestSuite) SetupTest() {
	s.db.truncate(s.T())
}

func (s *DriverRepositoryTestSuite) TestCreateAndGet() {
	driver := entities.NewDriver("uid-1", "Ann Lee", "ann@example.com")
	driver.Metadata["truck"] = "T-12"

	require.NoError(s.T(), s.repo.Create(s.ctx, driver))

	got, err := s.repo.GetByID(s.ctx, "uid-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Ann Lee", got.FullName)
	assert.Equal(s.T(), entities.RoleDriver, got.Role)
	assert.Equal(s.T(), "T-12", got.Metadata["truck"])
}

func (s *DriverRepositoryTestSuite) TestCreateDuplicate() {
	require.NoError(s.T(), s.repo.Create(s.ctx, entities.NewDriver("uid-1", "Ann Lee", "ann@example.com")))

	err := s.repo.Create(s.ctx, entities.NewDriver("uid-1", "Ann Again", "other@example.com"))
	assert.ErrorIs(s.T(), err, entities.ErrDriverExists)

	err = s.repo.Create(s.ctx, entities.NewDriver("uid-2", "Ann Twin", "ann@example.com"))
	assert.ErrorIs(s.T(), err, entities.ErrDriverExists)
}

func (s *DriverRepositoryTestSuite) TestGetMissing() {
	_, err := s.repo.GetByID(s.ctx, "ghost")
	assert.Equal(s.T(), entities.ErrDriverNotFound, err)
}

func (s *DriverRepositoryTestSuite) TestGetByIDs() {
	require.NoError(s.T(), s.repo.Create(s.ctx, entities.NewDriver("uid-1", "Ann Lee", "ann@example.com")))
	require.NoError(s.T(), s.repo.Create(s.ctx, entities.NewDriver("uid-2", "Bob Ray", "bob@example.com")))

	drivers, err := s.repo.GetByIDs(s.ctx, []string{"uid-1", "uid-2", "ghost"})
	require.NoError(s.T(), err)
	assert.Len(s.T(), drivers, 2)
	assert.Equal(s.T(), "Bob Ray", drivers["uid-2"].FullName)
}

func (s *DriverRepositoryTestSuite) TestListAndCount() {
	admin := entities.NewDriver("boss", "Zed Admin", "zed@example.com")
	admin.Role = entities.RoleAdmin
	require.NoError(s.T(), s.repo.Create(s.ctx, admin))
	require.NoError(s.T(), s.repo.Create(s.ctx, entities.NewDriver("uid-2", "Bob Ray", "bob@example.com")))
	require.NoError(s.T(), s.repo.Create(s.ctx, entities.NewDriver("uid-1", "Ann Lee", "ann@example.com")))

	role := entities.RoleDriver
	drivers, err := s.repo.List(s.ctx, &entities.DriverFilters{Role: &role, Limit: 10})
	require.NoError(s.T(), err)
	require.Len(s.T(), drivers, 2)
	assert.Equal(s.T(), "Ann Lee", drivers[0].FullName)

	count, err := s.repo.Count(s.ctx, &entities.DriverFilters{Role: &role})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, count)

	all, err := s.repo.Count(s.ctx, nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, all)
}

func TestDriverRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(DriverRepositoryTestSuite))
}
