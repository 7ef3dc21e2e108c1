package engine_test

import (
	"testing"
	"time"

	"veilmatch/backend/internal/engine"
	"veilmatch/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testGracePeriod = 50 * time.Millisecond

func newTestEngine(s *MockStorage) *engine.Engine {
	return engine.New(s, nil, testGracePeriod, zap.NewNop())
}

func newProfile(userID, gender, anonNumber string) *models.UserProfile {
	return &models.UserProfile{
		UserID:          userID,
		Username:        "name-" + userID,
		Gender:          gender,
		AnonymousNumber: anonNumber,
	}
}

// connect registers a mock client and announces the given identity on it.
// The profile lookup is stubbed on the way. Events emitted during announce
// are drained so tests start from a clean channel.
func connect(t *testing.T, e *engine.Engine, s *MockStorage, connID string, profile *models.UserProfile) *MockClient {
	t.Helper()
	s.On("GetProfile", profile.UserID).Return(profile, nil).Maybe()

	c := newMockClient(connID)
	e.Register(c)
	require.NoError(t, e.Announce(c, profile.UserID, ""))
	c.drain()
	return c
}

// pairUp announces two users, enqueues both and returns their clients plus
// the id of the match that must have formed.
func pairUp(t *testing.T, e *engine.Engine, s *MockStorage) (*MockClient, *MockClient, string) {
	t.Helper()
	c1 := connect(t, e, s, "conn_1", newProfile("user_1", "male", "111111"))
	c2 := connect(t, e, s, "conn_2", newProfile("user_2", "female", "222222"))

	require.NoError(t, e.StartMatching(c1, ""))
	require.NoError(t, e.StartMatching(c2, ""))

	events := c1.drain()
	found, ok := findEvent(events, models.EvMatchFound)
	require.True(t, ok, "user_1 should have received match-found")
	payload := found.Data.(models.MatchFoundPayload)
	c2.drain()

	assert.NotEmpty(t, payload.MatchID)
	return c1, c2, payload.MatchID
}
