package engine_test

import (
	"fmt"
	"testing"
	"time"

	"veilmatch/backend/internal/engine"
	"veilmatch/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchState requests the state of one match and returns the payload.
func matchState(t *testing.T, e *engine.Engine, c *MockClient, matchID string) models.MatchStatePayload {
	t.Helper()
	require.NoError(t, e.MatchState(c, matchID))
	ev, ok := findEvent(c.drain(), models.EvMatchState)
	require.True(t, ok)
	return ev.Data.(models.MatchStatePayload)
}

// reveal walks a pair through the continue handshake.
func reveal(t *testing.T, e *engine.Engine, c1, c2 *MockClient, matchID string) {
	t.Helper()
	require.NoError(t, e.RequestContinue(c1, matchID))
	require.NoError(t, e.AcceptContinue(c2, matchID))
	c1.drain()
	c2.drain()
}

func TestMatchState_AnonymousHidesProfile(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, _, matchID := pairUp(t, e, storageMock)

	state := matchState(t, e, c1, matchID)
	assert.Equal(t, "anonymous", state.Phase)
	assert.Nil(t, state.Partner, "the real profile must stay hidden before the reveal")
	assert.Equal(t, "222222", state.PartnerAnonymousID)
}

func TestMatchState_RevealedShowsProfile(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, c2, matchID := pairUp(t, e, storageMock)
	reveal(t, e, c1, c2, matchID)

	state := matchState(t, e, c1, matchID)
	assert.Equal(t, "revealed", state.Phase)
	require.NotNil(t, state.Partner)
	assert.Equal(t, "user_2", state.Partner.UserID)
	assert.Empty(t, state.PartnerAnonymousID)
}

// TestMatchState_StaleIDResolvesByParticipant: a client holding an id from
// before a reconnect still reaches its live match.
func TestMatchState_StaleIDResolvesByParticipant(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, _, matchID := pairUp(t, e, storageMock)

	state := matchState(t, e, c1, "match-id-from-last-session")
	assert.Equal(t, matchID, state.MatchID)
}

func TestMatchState_OutsiderRejected(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	_, _, matchID := pairUp(t, e, storageMock)

	c3 := connect(t, e, storageMock, "conn_3", newProfile("user_3", "female", "333333"))
	err := e.MatchState(c3, matchID)
	assert.ErrorIs(t, err, engine.ErrUnauthorized)
}

// TestPromotion_CarriesMessagesInOrder: the anonymous history survives the
// reveal untouched and in send order.
func TestPromotion_CarriesMessagesInOrder(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, c2, matchID := pairUp(t, e, storageMock)

	for i := 0; i < 5; i++ {
		sender := c1
		if i%2 == 1 {
			sender = c2
		}
		sendMessage(t, e, sender, matchID, fmt.Sprintf("msg-%d", i))
	}
	c1.drain()
	c2.drain()

	reveal(t, e, c1, c2, matchID)

	state := matchState(t, e, c1, matchID)
	require.Equal(t, "revealed", state.Phase)
	require.Len(t, state.Messages, 5)
	for i, msg := range state.Messages {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.Text)
	}
}

func TestMatches_ListsCompleted(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, c2, matchID := pairUp(t, e, storageMock)
	reveal(t, e, c1, c2, matchID)

	require.NoError(t, e.Matches(c1))
	ev, ok := findEvent(c1.drain(), models.EvMatchesList)
	require.True(t, ok)
	summaries := ev.Data.([]models.MatchSummary)
	require.Len(t, summaries, 1)
	assert.Equal(t, matchID, summaries[0].MatchID)
	require.NotNil(t, summaries[0].Partner)
	assert.Equal(t, "user_2", summaries[0].Partner.UserID)
}

func TestMatches_EmptyForNewUser(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)

	c1 := connect(t, e, storageMock, "conn_1", newProfile("user_1", "male", "111111"))
	require.NoError(t, e.Matches(c1))

	ev, ok := findEvent(c1.drain(), models.EvMatchesList)
	require.True(t, ok)
	assert.Empty(t, ev.Data.([]models.MatchSummary))
}

func TestLeaveMatch_ActiveDissolvesForBoth(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, c2, matchID := pairUp(t, e, storageMock)

	require.NoError(t, e.LeaveMatch(c1, matchID))

	_, left := findEvent(c1.drain(), models.EvMatchLeft)
	assert.True(t, left)
	ev, ok := findEvent(c2.drain(), models.EvMatchEnded)
	require.True(t, ok)
	assert.Equal(t, matchID, ev.Data.(models.MatchEndedPayload).MatchID)

	assert.ErrorIs(t, e.MatchState(c1, matchID), engine.ErrMatchNotFound)
	storageMock.AssertCalled(t, "DeleteActiveMatch", matchID)
}

// TestLeaveMatch_CompletedUnlinksBothSides: one side leaving a revealed match
// removes it for both, the history does not linger half-owned.
func TestLeaveMatch_CompletedUnlinksBothSides(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, c2, matchID := pairUp(t, e, storageMock)
	reveal(t, e, c1, c2, matchID)

	require.NoError(t, e.LeaveMatch(c1, matchID))

	events1 := c1.drain()
	_, left := findEvent(events1, models.EvMatchLeft)
	assert.True(t, left)
	_, updated1 := findEvent(events1, models.EvMatchesUpdated)
	assert.True(t, updated1)

	events2 := c2.drain()
	_, ended := findEvent(events2, models.EvMatchEnded)
	assert.True(t, ended)
	_, updated2 := findEvent(events2, models.EvMatchesUpdated)
	assert.True(t, updated2)

	storageMock.AssertCalled(t, "DeleteCompletedMatch", matchID)

	require.NoError(t, e.Matches(c2))
	ev, ok := findEvent(c2.drain(), models.EvMatchesList)
	require.True(t, ok)
	assert.Empty(t, ev.Data.([]models.MatchSummary), "the partner's list must not keep the match")
}

func TestLeaveMatch_AlreadyGone(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)

	c1 := connect(t, e, storageMock, "conn_1", newProfile("user_1", "male", "111111"))
	require.NoError(t, e.LeaveMatch(c1, "never-existed"))

	ev, ok := findEvent(c1.drain(), models.EvMatchLeft)
	require.True(t, ok)
	assert.Equal(t, "already gone", ev.Data.(models.MatchEndedPayload).Reason)
}

// TestLeaveMatch_OutsiderRejected: knowing a match id is not enough to
// destroy it, only a participant may leave.
func TestLeaveMatch_OutsiderRejected(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, c2, matchID := pairUp(t, e, storageMock)

	c3 := connect(t, e, storageMock, "conn_3", newProfile("user_3", "female", "333333"))
	err := e.LeaveMatch(c3, matchID)
	assert.ErrorIs(t, err, engine.ErrUnauthorized)

	// The match is intact for both real participants.
	state := matchState(t, e, c1, matchID)
	assert.Equal(t, "anonymous", state.Phase)
	assert.Zero(t, countEvents(c2.drain(), models.EvMatchEnded))
}

// TestLeaveMatch_CompletedOutsiderRejected covers the revealed phase: a third
// user must not be able to delete someone else's match history.
func TestLeaveMatch_CompletedOutsiderRejected(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	c1, c2, matchID := pairUp(t, e, storageMock)
	reveal(t, e, c1, c2, matchID)

	c3 := connect(t, e, storageMock, "conn_3", newProfile("user_3", "female", "333333"))
	assert.ErrorIs(t, e.LeaveMatch(c3, matchID), engine.ErrUnauthorized)

	storageMock.AssertNotCalled(t, "DeleteCompletedMatch", matchID)
	state := matchState(t, e, c1, matchID)
	assert.Equal(t, "revealed", state.Phase)
}

func TestLeaveMatch_NotAnnounced(t *testing.T) {
	storageMock := newMockStorage()
	e := newTestEngine(storageMock)
	_, _, matchID := pairUp(t, e, storageMock)

	stranger := newMockClient("conn_x")
	e.Register(stranger)
	assert.ErrorIs(t, e.LeaveMatch(stranger, matchID), engine.ErrNotAnnounced)
}

// TestMatches_SortedByActivity: the list comes back oldest activity first,
// newest last, regardless of the order the records were loaded in.
func TestMatches_SortedByActivity(t *testing.T) {
	storageMock := new(MockStorage)
	profile := newProfile("user_1", "male", "111111")
	partner := newProfile("user_2", "female", "222222")
	now := time.Now()
	newer := &models.CompletedMatch{
		MatchID:       "match-newer",
		User1:         models.Participant{UserID: "user_1", AnonymousID: "111111", Profile: profile},
		User2:         models.Participant{UserID: "user_2", AnonymousID: "222222", Profile: partner},
		CompletedAt:   now.Add(-2 * time.Hour),
		LastMessageAt: now.Add(-time.Minute),
	}
	older := &models.CompletedMatch{
		MatchID:       "match-older",
		User1:         models.Participant{UserID: "user_1", AnonymousID: "111111", Profile: profile},
		User2:         models.Participant{UserID: "user_2", AnonymousID: "222222", Profile: partner},
		CompletedAt:   now.Add(-time.Hour),
		LastMessageAt: now.Add(-time.Hour),
	}
	storageMock.On("IsUserBanned", "user_1").Return(false, nil)
	storageMock.On("GetProfile", "user_1").Return(profile, nil)
	storageMock.On("LoadCompletedMatchesForUser", "user_1").
		Return([]*models.CompletedMatch{newer, older}, nil)
	storageMock.On("DrainNotifications", "user_1").Return([]models.Notification{}, nil)
	e := newTestEngine(storageMock)

	c := newMockClient("conn_1")
	e.Register(c)
	require.NoError(t, e.Announce(c, "user_1", ""))
	c.drain()

	require.NoError(t, e.Matches(c))
	ev, ok := findEvent(c.drain(), models.EvMatchesList)
	require.True(t, ok)
	summaries := ev.Data.([]models.MatchSummary)
	require.Len(t, summaries, 2)
	assert.Equal(t, "match-older", summaries[0].MatchID)
	assert.Equal(t, "match-newer", summaries[1].MatchID)
}
