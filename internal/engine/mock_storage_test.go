package engine_test

import (
	"time"

	"veilmatch/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

// newMockStorage returns a mock with lenient defaults so tests only declare
// the expectations they actually care about.
func newMockStorage() *MockStorage {
	m := new(MockStorage)
	m.On("IsUserBanned", mock.Anything).Return(false, nil).Maybe()
	m.On("SaveActiveMatch", mock.Anything).Return(nil).Maybe()
	m.On("DeleteActiveMatch", mock.Anything).Return(nil).Maybe()
	m.On("SaveCompletedMatch", mock.Anything).Return(nil).Maybe()
	m.On("DeleteCompletedMatch", mock.Anything).Return(nil).Maybe()
	m.On("LoadCompletedMatch", mock.Anything).Return(nil, nil).Maybe()
	m.On("LoadCompletedMatchesForUser", mock.Anything).Return([]*models.CompletedMatch{}, nil).Maybe()
	m.On("EnqueueNotification", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("DrainNotifications", mock.Anything).Return([]models.Notification{}, nil).Maybe()
	return m
}

func (m *MockStorage) GetProfile(userID string) (*models.UserProfile, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockStorage) SaveProfile(p *models.UserProfile) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockStorage) IsUserBanned(userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) BanUser(userID string, duration time.Duration) error {
	args := m.Called(userID, duration)
	return args.Error(0)
}

func (m *MockStorage) UnbanUser(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) SaveActiveMatch(match *models.ActiveMatch) error {
	args := m.Called(match)
	return args.Error(0)
}

func (m *MockStorage) DeleteActiveMatch(matchID string) error {
	args := m.Called(matchID)
	return args.Error(0)
}

func (m *MockStorage) LoadActiveMatches() ([]*models.ActiveMatch, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActiveMatch), args.Error(1)
}

func (m *MockStorage) SaveCompletedMatch(match *models.CompletedMatch) error {
	args := m.Called(match)
	return args.Error(0)
}

func (m *MockStorage) DeleteCompletedMatch(matchID string) error {
	args := m.Called(matchID)
	return args.Error(0)
}

func (m *MockStorage) LoadCompletedMatch(matchID string) (*models.CompletedMatch, error) {
	args := m.Called(matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompletedMatch), args.Error(1)
}

func (m *MockStorage) LoadCompletedMatchesForUser(userID string) ([]*models.CompletedMatch, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CompletedMatch), args.Error(1)
}

func (m *MockStorage) EnqueueNotification(userID string, n models.Notification) error {
	args := m.Called(userID, n)
	return args.Error(0)
}

func (m *MockStorage) DrainNotifications(userID string) ([]models.Notification, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}
