package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"planningpoker/internal/models"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	repo   Repository
	ctx    context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	// Create a new miniredis server for each test
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := NewRedis(&Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo

	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) testSession() *models.Session {
	return &models.Session{
		ID:            "test-session-id",
		RoomCode:      "A2B3C4",
		Name:          "Sprint 1",
		DeckType:      models.DeckTypeFibonacci,
		FacilitatorID: "alice-id",
		IsRevealed:    false,
		Users: []*models.User{
			{
				ID:   "alice-id",
				Name: "Alice",
				Role: models.UserRoleFacilitator,
			},
		},
	}
}

func (s *RedisRepositoryTestSuite) TestCreateAndGetSession() {
	err := s.repo.CreateSession(s.ctx, &CreateSessionInput{
		Session: s.testSession(),
	})
	s.Require().NoError(err)

	retrieved, err := s.repo.GetSession(s.ctx, &GetSessionInput{
		SessionID: "test-session-id",
	})
	s.Require().NoError(err)
	s.Require().NotNil(retrieved)

	s.Equal("test-session-id", retrieved.ID)
	s.Equal("A2B3C4", retrieved.RoomCode)
	s.Equal("Sprint 1", retrieved.Name)
	s.Equal(models.DeckTypeFibonacci, retrieved.DeckType)
	s.Equal("alice-id", retrieved.FacilitatorID)
	s.False(retrieved.IsRevealed)
	s.Require().Len(retrieved.Users, 1)
	s.Equal("alice-id", retrieved.Users[0].ID)
	s.Equal(models.UserRoleFacilitator, retrieved.Users[0].Role)
	s.False(retrieved.Users[0].HasVoted)
	s.False(retrieved.CreatedAt.IsZero())
	s.False(retrieved.UpdatedAt.IsZero())
}

func (s *RedisRepositoryTestSuite) TestGetSessionByRoomCode() {
	err := s.repo.CreateSession(s.ctx, &CreateSessionInput{
		Session: s.testSession(),
	})
	s.Require().NoError(err)

	retrieved, err := s.repo.GetSessionByRoomCode(s.ctx, &GetSessionByRoomCodeInput{
		RoomCode: "A2B3C4",
	})
	s.Require().NoError(err)
	s.Equal("test-session-id", retrieved.ID)

	// Lookup is case-insensitive
	retrieved, err = s.repo.GetSessionByRoomCode(s.ctx, &GetSessionByRoomCodeInput{
		RoomCode: "a2b3c4",
	})
	s.Require().NoError(err)
	s.Equal("test-session-id", retrieved.ID)
}

func (s *RedisRepositoryTestSuite) TestGetSession_NotFound() {
	_, err := s.repo.GetSession(s.ctx, &GetSessionInput{
		SessionID: "missing",
	})
	s.Require().Error(err)
	s.ErrorIs(err, ErrSessionNotFound)

	_, err = s.repo.GetSessionByRoomCode(s.ctx, &GetSessionByRoomCodeInput{
		RoomCode: "Z9Z9Z9",
	})
	s.Require().Error(err)
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *RedisRepositoryTestSuite) TestExists() {
	exists, err := s.repo.SessionExists(s.ctx, &SessionExistsInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.False(exists)

	codeExists, err := s.repo.RoomCodeExists(s.ctx, &RoomCodeExistsInput{RoomCode: "A2B3C4"})
	s.Require().NoError(err)
	s.False(codeExists)

	s.Require().NoError(s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: s.testSession()}))

	exists, err = s.repo.SessionExists(s.ctx, &SessionExistsInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.True(exists)

	codeExists, err = s.repo.RoomCodeExists(s.ctx, &RoomCodeExistsInput{RoomCode: "a2b3c4"})
	s.Require().NoError(err)
	s.True(codeExists)
}

func (s *RedisRepositoryTestSuite) TestPutUser_JoinOrderPreserved() {
	s.Require().NoError(s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: s.testSession()}))

	err := s.repo.PutUser(s.ctx, &PutUserInput{
		SessionID: "test-session-id",
		User:      &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter},
	})
	s.Require().NoError(err)

	// miniredis uses real time for nothing here, but the join-order scores
	// come from the clock; give the second join a later nanosecond
	time.Sleep(time.Millisecond)

	err = s.repo.PutUser(s.ctx, &PutUserInput{
		SessionID: "test-session-id",
		User:      &models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleObserver},
	})
	s.Require().NoError(err)

	retrieved, err := s.repo.GetSession(s.ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.Require().Len(retrieved.Users, 3)
	s.Equal("alice-id", retrieved.Users[0].ID)
	s.Equal("bob-id", retrieved.Users[1].ID)
	s.Equal("carol-id", retrieved.Users[2].ID)
}

func (s *RedisRepositoryTestSuite) TestPutUser_RejoinKeepsPosition() {
	s.Require().NoError(s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: s.testSession()}))

	s.Require().NoError(s.repo.PutUser(s.ctx, &PutUserInput{
		SessionID: "test-session-id",
		User:      &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter},
	}))
	time.Sleep(time.Millisecond)
	s.Require().NoError(s.repo.PutUser(s.ctx, &PutUserInput{
		SessionID: "test-session-id",
		User:      &models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleVoter},
	}))
	time.Sleep(time.Millisecond)

	// Rejoin overwrites Bob's entry without duplicating or moving him
	s.Require().NoError(s.repo.PutUser(s.ctx, &PutUserInput{
		SessionID: "test-session-id",
		User:      &models.User{ID: "bob-id", Name: "Bobby", Role: models.UserRoleVoter},
	}))

	retrieved, err := s.repo.GetSession(s.ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.Require().Len(retrieved.Users, 3)
	s.Equal("bob-id", retrieved.Users[1].ID)
	s.Equal("Bobby", retrieved.Users[1].Name)
}

func (s *RedisRepositoryTestSuite) TestPutUser_SessionNotFound() {
	err := s.repo.PutUser(s.ctx, &PutUserInput{
		SessionID: "missing",
		User:      &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter},
	})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *RedisRepositoryTestSuite) TestConcurrentVotes_NoLostUpdate() {
	sess := s.testSession()
	sess.Users = append(sess.Users,
		&models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter},
		&models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleVoter},
	)
	s.Require().NoError(s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: sess}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.NoError(s.repo.PutUser(s.ctx, &PutUserInput{
			SessionID: "test-session-id",
			User:      &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter, HasVoted: true, Vote: "5"},
		}))
	}()
	go func() {
		defer wg.Done()
		s.NoError(s.repo.PutUser(s.ctx, &PutUserInput{
			SessionID: "test-session-id",
			User:      &models.User{ID: "carol-id", Name: "Carol", Role: models.UserRoleVoter, HasVoted: true, Vote: "8"},
		}))
	}()
	wg.Wait()

	retrieved, err := s.repo.GetSession(s.ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)

	bob := retrieved.FindUser("bob-id")
	carol := retrieved.FindUser("carol-id")
	s.Require().NotNil(bob)
	s.Require().NotNil(carol)
	s.True(bob.HasVoted)
	s.Equal("5", bob.Vote)
	s.True(carol.HasVoted)
	s.Equal("8", carol.Vote)
}

func (s *RedisRepositoryTestSuite) TestRemoveUser() {
	sess := s.testSession()
	sess.Users = append(sess.Users, &models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter})
	s.Require().NoError(s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: sess}))

	err := s.repo.RemoveUser(s.ctx, &RemoveUserInput{
		SessionID: "test-session-id",
		UserID:    "bob-id",
	})
	s.Require().NoError(err)

	retrieved, err := s.repo.GetSession(s.ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.Require().Len(retrieved.Users, 1)
	s.Equal("alice-id", retrieved.Users[0].ID)

	// Removing an absent user is a no-op
	s.NoError(s.repo.RemoveUser(s.ctx, &RemoveUserInput{
		SessionID: "test-session-id",
		UserID:    "bob-id",
	}))
}

func (s *RedisRepositoryTestSuite) TestSetRevealed() {
	s.Require().NoError(s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: s.testSession()}))

	err := s.repo.SetRevealed(s.ctx, &SetRevealedInput{
		SessionID:  "test-session-id",
		IsRevealed: true,
	})
	s.Require().NoError(err)

	retrieved, err := s.repo.GetSession(s.ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.True(retrieved.IsRevealed)
}

func (s *RedisRepositoryTestSuite) TestResetRound() {
	sess := s.testSession()
	sess.Users[0].HasVoted = true
	sess.Users[0].Vote = "5"
	sess.Users = append(sess.Users,
		&models.User{ID: "bob-id", Name: "Bob", Role: models.UserRoleVoter, HasVoted: true, Vote: "8"},
	)
	sess.IsRevealed = true
	s.Require().NoError(s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: sess}))

	err := s.repo.ResetRound(s.ctx, &ResetRoundInput{SessionID: "test-session-id"})
	s.Require().NoError(err)

	retrieved, err := s.repo.GetSession(s.ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.False(retrieved.IsRevealed)
	for _, u := range retrieved.Users {
		s.False(u.HasVoted)
		s.Empty(u.Vote)
	}

	// Resetting twice yields the same state
	s.Require().NoError(s.repo.ResetRound(s.ctx, &ResetRoundInput{SessionID: "test-session-id"}))
	again, err := s.repo.GetSession(s.ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.Equal(retrieved.Users, again.Users)
	s.False(again.IsRevealed)
}

func (s *RedisRepositoryTestSuite) TestDeleteSession() {
	s.Require().NoError(s.repo.CreateSession(s.ctx, &CreateSessionInput{Session: s.testSession()}))

	err := s.repo.DeleteSession(s.ctx, &DeleteSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)

	_, err = s.repo.GetSession(s.ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.ErrorIs(err, ErrSessionNotFound)

	// The room code index entry is gone too, so the code can be reused
	codeExists, err := s.repo.RoomCodeExists(s.ctx, &RoomCodeExistsInput{RoomCode: "A2B3C4"})
	s.Require().NoError(err)
	s.False(codeExists)
}
