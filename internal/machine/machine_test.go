package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planningpoker/internal/models"
)

func newTestSession() *models.Session {
	facilitator := &models.User{
		ID:   "alice-id",
		Name: "Alice",
		Role: models.UserRoleFacilitator,
	}
	return NewSession("session-id", "A2B3C4", "Sprint 1", models.DeckTypeFibonacci, facilitator)
}

func TestNewSession(t *testing.T) {
	s := newTestSession()

	assert.Equal(t, "session-id", s.ID)
	assert.Equal(t, "A2B3C4", s.RoomCode)
	assert.Equal(t, "Sprint 1", s.Name)
	assert.Equal(t, models.DeckTypeFibonacci, s.DeckType)
	assert.Equal(t, "alice-id", s.FacilitatorID)
	assert.False(t, s.IsRevealed)
	require.Len(t, s.Users, 1)
	assert.Equal(t, models.UserRoleFacilitator, s.Users[0].Role)
	assert.False(t, s.Users[0].HasVoted)
}

func TestJoin_AppendsInOrder(t *testing.T) {
	s := newTestSession()

	s = Join(s, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})
	s = Join(s, &models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleObserver})

	require.Len(t, s.Users, 3)
	assert.Equal(t, "alice-id", s.Users[0].ID)
	assert.Equal(t, "bob-id", s.Users[1].ID)
	assert.Equal(t, "carol-id", s.Users[2].ID)
}

func TestJoin_RejoinOverwritesInPlace(t *testing.T) {
	s := newTestSession()
	s = Join(s, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})
	s = Join(s, &models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleVoter})

	// Retried join with the same ID must not duplicate
	s = Join(s, &models.User{ID: "bob-id", Name: "Bobby", Role: models.UserRoleObserver})

	require.Len(t, s.Users, 3)
	assert.Equal(t, "bob-id", s.Users[1].ID)
	assert.Equal(t, "Bobby", s.Users[1].Name)
	assert.Equal(t, models.UserRoleObserver, s.Users[1].Role)
}

func TestVote_HappyPath(t *testing.T) {
	s := newTestSession()

	next, err := Vote(s, "alice-id", "5")
	require.NoError(t, err)

	user := next.FindUser("alice-id")
	require.NotNil(t, user)
	assert.True(t, user.HasVoted)
	assert.Equal(t, "5", user.Vote)

	// The input snapshot is untouched
	assert.False(t, s.Users[0].HasVoted)
}

func TestVote_TouchesOnlyTheVoter(t *testing.T) {
	s := newTestSession()
	s = Join(s, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})
	s = Join(s, &models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleVoter})

	next, err := Vote(s, "bob-id", "8")
	require.NoError(t, err)

	for _, u := range next.Users {
		if u.ID == "bob-id" {
			assert.True(t, u.HasVoted)
			assert.Equal(t, "8", u.Vote)
			continue
		}
		assert.False(t, u.HasVoted, "user %s must be untouched", u.ID)
		assert.Empty(t, u.Vote)
	}
}

func TestVote_UnknownUser(t *testing.T) {
	s := newTestSession()

	_, err := Vote(s, "nobody", "5")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVote_ValueOutsideDeck(t *testing.T) {
	s := newTestSession()

	_, err := Vote(s, "alice-id", "XL")
	assert.ErrorIs(t, err, ErrInvalidVote)
}

func TestVote_AllowedAfterReveal(t *testing.T) {
	s := Reveal(newTestSession())

	next, err := Vote(s, "alice-id", "13")
	require.NoError(t, err)
	assert.Equal(t, "13", next.FindUser("alice-id").Vote)
}

func TestVote_ObserverVoteIsAccepted(t *testing.T) {
	// Role is not re-validated on Vote; keeping observers out of the
	// voting controls is a UI convention.
	s := newTestSession()
	s = Join(s, &models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleObserver})

	next, err := Vote(s, "carol-id", "3")
	require.NoError(t, err)
	assert.True(t, next.FindUser("carol-id").HasVoted)
}

func TestReveal_UnconditionalWithZeroVotes(t *testing.T) {
	s := newTestSession()
	s = Join(s, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})

	next := Reveal(s)
	assert.True(t, next.IsRevealed)
	for _, u := range next.Users {
		assert.False(t, u.HasVoted)
	}
}

func TestReset_ClearsVotesAndHidesResults(t *testing.T) {
	s := newTestSession()
	s = Join(s, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})
	s, err := Vote(s, "alice-id", "5")
	require.NoError(t, err)
	s, err = Vote(s, "bob-id", "8")
	require.NoError(t, err)
	s = Reveal(s)

	next := Reset(s)

	assert.False(t, next.IsRevealed)
	for _, u := range next.Users {
		assert.False(t, u.HasVoted)
		assert.Empty(t, u.Vote)
	}
}

func TestReset_Idempotent(t *testing.T) {
	s := newTestSession()
	s, err := Vote(s, "alice-id", "21")
	require.NoError(t, err)
	s = Reveal(s)

	once := Reset(s)
	twice := Reset(once)

	assert.Equal(t, once, twice)
}

func TestLeave_RemovesUser(t *testing.T) {
	s := newTestSession()
	s = Join(s, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})

	next := Leave(s, "bob-id")
	require.Len(t, next.Users, 1)
	assert.Equal(t, "alice-id", next.Users[0].ID)
}

func TestLeave_AbsentUserIsNoOp(t *testing.T) {
	s := newTestSession()

	next := Leave(s, "nobody")
	assert.Equal(t, s, next)
}

func TestLeave_FacilitatorKeepsRole(t *testing.T) {
	s := newTestSession()
	s = Join(s, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})

	next := Leave(s, "alice-id")

	// No reassignment: the facilitator ID points at a departed user
	assert.Equal(t, "alice-id", next.FacilitatorID)
	require.Len(t, next.Users, 1)
	assert.Nil(t, next.FindUser("alice-id"))
}

func TestCanReveal(t *testing.T) {
	s := newTestSession()
	s = Join(s, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})
	s = Join(s, &models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleObserver})

	assert.False(t, CanReveal(s))

	s, err := Vote(s, "alice-id", "5")
	require.NoError(t, err)
	assert.False(t, CanReveal(s))

	// Observer abstaining does not block reveal
	s, err = Vote(s, "bob-id", "8")
	require.NoError(t, err)
	assert.True(t, CanReveal(s))
}

func TestCanReveal_NoVoters(t *testing.T) {
	facilitator := &models.User{ID: "alice-id", Name: "Alice", Role: models.UserRoleFacilitator}
	s := NewSession("session-id", "A2B3C4", "Sprint 1", models.DeckTypeFibonacci, facilitator)
	s = Leave(s, "alice-id")

	assert.False(t, CanReveal(s))
}
