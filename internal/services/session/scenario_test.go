package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"planningpoker/internal/common/roomcode"
	"planningpoker/internal/common/uuid"
	"planningpoker/internal/models"
	"planningpoker/internal/notifier"
	presenceRepo "planningpoker/internal/repositories/presence"
	sessionRepo "planningpoker/internal/repositories/session"
)

// ScenarioTestSuite runs the facade against real repositories over miniredis,
// walking multi-step participant flows end to end
type ScenarioTestSuite struct {
	suite.Suite
	mr             *miniredis.Miniredis
	client         *redis.Client
	sessionService Service
	ctx            context.Context
}

func (s *ScenarioTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	sessions, err := sessionRepo.NewRedis(&sessionRepo.Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)

	presences, err := presenceRepo.NewRedis(&presenceRepo.Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)

	changeNotifier, err := notifier.NewRedis(&notifier.Config{
		RedisClient: s.client,
		SessionRepo: sessions,
	})
	s.Require().NoError(err)

	svc, err := New(&Config{
		SessionRepo:   sessions,
		PresenceRepo:  presences,
		Notifier:      changeNotifier,
		UUIDGenerator: uuid.New(),
		CodeGenerator: roomcode.New(&roomcode.Config{Seed: 42}),
	})
	s.Require().NoError(err)
	s.sessionService = svc

	s.ctx = context.Background()
}

func (s *ScenarioTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestScenarioTestSuite(t *testing.T) {
	suite.Run(t, new(ScenarioTestSuite))
}

func (s *ScenarioTestSuite) TestLeaveThenRejoin_FacilitatorSurvives() {
	created, err := s.sessionService.CreateSession(s.ctx, &CreateSessionInput{
		Name:            "Sprint 1",
		DeckType:        models.DeckTypeFibonacci,
		FacilitatorName: "Alice",
	})
	s.Require().NoError(err)

	aliceID := created.Facilitator.ID

	// Bob joins through the shareable room code
	firstJoin, err := s.sessionService.JoinSession(s.ctx, &JoinSessionInput{
		IDOrRoomCode: created.Session.RoomCode,
		UserName:     "Bob",
		Role:         models.UserRoleVoter,
	})
	s.Require().NoError(err)
	s.Len(firstJoin.Session.Users, 2)

	_, err = s.sessionService.LeaveSession(s.ctx, &LeaveSessionInput{
		SessionID: created.Session.ID,
		UserID:    firstJoin.User.ID,
	})
	s.Require().NoError(err)

	afterLeave, err := s.sessionService.GetSession(s.ctx, &GetSessionInput{
		IDOrRoomCode: created.Session.ID,
	})
	s.Require().NoError(err)
	s.Len(afterLeave.Session.Users, 1)
	s.Equal(aliceID, afterLeave.Session.FacilitatorID)

	// Bob comes back as a fresh participant
	secondJoin, err := s.sessionService.JoinSession(s.ctx, &JoinSessionInput{
		IDOrRoomCode: created.Session.RoomCode,
		UserName:     "Bob",
		Role:         models.UserRoleVoter,
	})
	s.Require().NoError(err)
	s.NotEqual(firstJoin.User.ID, secondJoin.User.ID)

	final, err := s.sessionService.GetSession(s.ctx, &GetSessionInput{
		IDOrRoomCode: created.Session.ID,
	})
	s.Require().NoError(err)

	// Alice's facilitator role rides out the churn; join order holds
	s.Equal(aliceID, final.Session.FacilitatorID)
	s.Require().Len(final.Session.Users, 2)
	s.Equal(aliceID, final.Session.Users[0].ID)
	s.Equal(secondJoin.User.ID, final.Session.Users[1].ID)
	s.False(final.Session.IsRevealed)
}

func (s *ScenarioTestSuite) TestFullRound_VoteRevealReset() {
	created, err := s.sessionService.CreateSession(s.ctx, &CreateSessionInput{
		Name:            "Sprint 2",
		DeckType:        models.DeckTypeTShirt,
		FacilitatorName: "Alice",
	})
	s.Require().NoError(err)

	joined, err := s.sessionService.JoinSession(s.ctx, &JoinSessionInput{
		IDOrRoomCode: created.Session.RoomCode,
		UserName:     "Bob",
		Role:         models.UserRoleVoter,
	})
	s.Require().NoError(err)

	_, err = s.sessionService.Vote(s.ctx, &VoteInput{
		SessionID: created.Session.ID,
		UserID:    created.Facilitator.ID,
		Value:     "M",
	})
	s.Require().NoError(err)

	_, err = s.sessionService.Vote(s.ctx, &VoteInput{
		SessionID: created.Session.ID,
		UserID:    joined.User.ID,
		Value:     "L",
	})
	s.Require().NoError(err)

	revealed, err := s.sessionService.RevealCards(s.ctx, &RevealCardsInput{
		SessionID: created.Session.ID,
	})
	s.Require().NoError(err)
	s.True(revealed.Session.IsRevealed)

	reset, err := s.sessionService.ResetRound(s.ctx, &ResetRoundInput{
		SessionID: created.Session.ID,
	})
	s.Require().NoError(err)
	s.False(reset.Session.IsRevealed)

	final, err := s.sessionService.GetSession(s.ctx, &GetSessionInput{
		IDOrRoomCode: created.Session.ID,
	})
	s.Require().NoError(err)
	for _, u := range final.Session.Users {
		s.False(u.HasVoted)
		s.Empty(u.Vote)
	}
}
